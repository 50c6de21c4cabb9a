package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"gte=0,lte=65535"`
	Mode string `mapstructure:"mode"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host" validate:"required"`
	Port            int    `mapstructure:"port" validate:"gt=0,lte=65535"`
	Username        string `mapstructure:"username" validate:"required"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database" validate:"required"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// OncallConfig describes how to reach the upstream on-call roster service.
// The roster endpoints are unauthenticated read-only snapshots.
type OncallConfig struct {
	BaseURL        string `mapstructure:"base_url" validate:"required,url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gt=0"`
}

func (o *OncallConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutSeconds) * time.Second
}

// PresetUser is a statically configured user merged over the roster
// snapshot. Contacts map mode name to destination; sms and call numbers
// are normalized before use and dropped when unparsable.
type PresetUser struct {
	Name     string            `mapstructure:"name" validate:"required"`
	Contacts map[string]string `mapstructure:"contacts"`
}

// SyncConfig carries the reconciliation schedule and the team
// classification rule sets.
type SyncConfig struct {
	IntervalSeconds int  `mapstructure:"interval_seconds" validate:"gte=1"`
	DryRun          bool `mapstructure:"dry_run"`
	Purge           bool `mapstructure:"purge"`

	// Default region used when parsing phone numbers without a country
	// prefix.
	DefaultRegion string `mapstructure:"default_region" validate:"required,len=2"`

	// Classification rule sets. Team names here are base names, without
	// the builtin or time-period suffixes.
	ScrumTeamPrefix        string            `mapstructure:"scrum_team_prefix"`
	PlatformTeams          []string          `mapstructure:"platform_teams"`
	StandbyTeams           []string          `mapstructure:"standby_teams"`
	StandbyEscalationTeams []string          `mapstructure:"standby_escalation_teams"`
	StandbySupportTeam     string            `mapstructure:"standby_support_team"`
	StandbyEscalationTeam  string            `mapstructure:"standby_escalation_team"`
	SpaceToSRTTeam         map[string]string `mapstructure:"space_to_srt_team"`
	ScrumTeamsFile         string            `mapstructure:"scrum_teams_file"`

	PresetUsers []PresetUser `mapstructure:"preset_users" validate:"dive"`
}

func (s *SyncConfig) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

// MetricsConfig controls the periodic metrics snapshot logging.
type MetricsConfig struct {
	EmitIntervalSeconds int `mapstructure:"emit_interval_seconds" validate:"gte=1"`
}

func (m *MetricsConfig) EmitInterval() time.Duration {
	return time.Duration(m.EmitIntervalSeconds) * time.Second
}
