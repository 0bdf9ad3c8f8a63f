package config

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/rs/zerolog/log"
	"os"
	"time"
)

type Config struct {
	MetadataDB  MySQL       `json:"metadata_db"`
	Mail        Mail        `json:"mail"`
	Dispatch    Dispatch    `json:"dispatch"`
	Secret      Secret      `json:"secret"`
	GoogleDrive GoogleDrive `json:"google_drive"`
	Kafka       Kafka       `json:"kafka"`
	Log         Log         `json:"log"`
	CORS        CORS        `json:"cors"`
}

type MySQL struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
}

func (mysql *MySQL) ToDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", mysql.Username, mysql.Password, mysql.Host, mysql.Port, mysql.Database)
}

// Mail selects the outbound transport. With "smtp" the user's decrypted
// secret is a mailbox app password; with "brevo" it is an API key.
type Mail struct {
	Provider string `json:"provider"`
	SMTPHost string `json:"smtp_host"`
	SMTPPort int    `json:"smtp_port"`
	BrevoURL string `json:"brevo_url"`
}

type Dispatch struct {
	ConcurrencyLimit    int  `json:"concurrency_limit"`
	InterBatchDelayMs   int  `json:"inter_batch_delay_ms"`
	SendTimeoutSeconds  int  `json:"send_timeout_seconds"`
	FetchTimeoutSeconds int  `json:"fetch_timeout_seconds"`
	MaxSendAttempts     int  `json:"max_send_attempts"`
	StrictAttachments   bool `json:"strict_attachments"`
	FinalizeMaxRetries  int  `json:"finalize_max_retries"`
	RunTTLMinutes       int  `json:"run_ttl_minutes"`
}

func (d Dispatch) InterBatchDelay() time.Duration {
	return time.Duration(d.InterBatchDelayMs) * time.Millisecond
}

func (d Dispatch) SendTimeout() time.Duration {
	return time.Duration(d.SendTimeoutSeconds) * time.Second
}

func (d Dispatch) FetchTimeout() time.Duration {
	return time.Duration(d.FetchTimeoutSeconds) * time.Second
}

func (d Dispatch) RunTTL() time.Duration {
	return time.Duration(d.RunTTLMinutes) * time.Minute
}

type Secret struct {
	Key string `json:"key"`
}

type GoogleDrive struct {
	GoogleServiceAccount map[string]interface{} `json:"google_service_account"`
	BaseFolderID         string                 `json:"base_folder_id"`
}

func (g GoogleDrive) Enabled() bool {
	return len(g.GoogleServiceAccount) > 0
}

type Kafka struct {
	Brokers         []string          `json:"brokers"`
	Topics          map[uint32]string `json:"topics"`
	ConsumerTopic   string            `json:"consumer_topic"`
	ConsumerGroup   string            `json:"consumer_group"`
	BalanceStrategy string            `json:"balance_strategy"`
	InitialOffset   string            `json:"initial_offset"`
}

func (k Kafka) Enabled() bool {
	return len(k.Brokers) > 0
}

type Log struct {
	File       string `json:"file"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

type CORS struct {
	AllowedOrigins []string `json:"allowed_origins"`
}

func NewConfig() *Config {
	return &Config{
		MetadataDB: MySQL{
			Username: "",
			Password: "",
			Host:     "127.0.0.1",
			Port:     3306,
			Database: "codemailer_db",
		},
		Mail: Mail{
			Provider: MailProviderSMTP,
			SMTPHost: "smtp.gmail.com",
			SMTPPort: 587,
			BrevoURL: "https://api.brevo.com/v3/smtp/email",
		},
		Dispatch: Dispatch{
			ConcurrencyLimit:    3,
			InterBatchDelayMs:   500,
			SendTimeoutSeconds:  30,
			FetchTimeoutSeconds: 20,
			MaxSendAttempts:     1,
			StrictAttachments:   false,
			FinalizeMaxRetries:  5,
			RunTTLMinutes:       60,
		},
		Secret: Secret{
			Key: "default-secret-key-change-me",
		},
		Log: Log{
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		CORS: CORS{
			AllowedOrigins: []string{"*"},
		},
	}
}

func (c *Config) Load(ctx context.Context, path string) error {
	if path == "" {
		log.Ctx(ctx).Warn().Msgf("empty config file")
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Ctx(ctx).Warn().Msgf("config file does not exist, file path: %s", path)
			return nil
		}
		return err
	}
	defer func(f *os.File) {
		err := f.Close()
		if err != nil {
			log.Ctx(ctx).Error().Msgf("config file close failed, file path: %s", path)
		}
	}(f)

	p := json.NewDecoder(f)
	if err := p.Decode(&c); err != nil {
		return err
	}

	return nil
}
