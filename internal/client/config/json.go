package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/casconsole/internal/flagx"
	"github.com/dmitrijs2005/casconsole/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals use
// timex.Duration so they can be given as "3s" or as integer nanoseconds.
type JsonConfig struct {
	APIBaseURL     string         `json:"api_base_url"`
	APIMode        string         `json:"api_mode"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	PollInterval   timex.Duration `json:"poll_interval"`
	DownloadDir    string         `json:"download_dir"`

	Storage struct {
		Backend    string `json:"backend"`
		BaseURL    string `json:"base_url"`
		AuthSuffix string `json:"auth_suffix"`
		Container  string `json:"container"`
		S3         struct {
			Bucket       string `json:"bucket"`
			Region       string `json:"region"`
			Endpoint     string `json:"endpoint"`
			AccessKey    string `json:"access_key"`
			SecretKey    string `json:"secret_key"`
			Prefix       string `json:"prefix"`
			UsePathStyle *bool  `json:"path_style"`
		} `json:"s3"`
	} `json:"storage"`

	Session struct {
		Store         string         `json:"store"`
		SQLitePath    string         `json:"sqlite_path"`
		RedisAddr     string         `json:"redis_addr"`
		RedisPassword string         `json:"redis_password"`
		RedisDB       *int           `json:"redis_db"`
		RedisPrefix   string         `json:"redis_prefix"`
		TTL           timex.Duration `json:"ttl"`
	} `json:"session"`

	Auth struct {
		Mode         string   `json:"mode"`
		Token        string   `json:"token"`
		Issuer       string   `json:"issuer"`
		ClientID     string   `json:"client_id"`
		ClientSecret string   `json:"client_secret"`
		Scopes       []string `json:"scopes"`
	} `json:"auth"`

	Log struct {
		Level  string `json:"level"`
		Format string `json:"format"`
	} `json:"log"`
}

// parseJson overlays cfg with the JSON file named by -c/-config (or
// $CASCONSOLE_CONFIG). Keys absent from the file keep their current values.
func parseJson(cfg *Config) error {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	jc.apply(cfg)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setString(&cfg.APIMode, jc.APIMode)
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	setDuration(&cfg.PollInterval, jc.PollInterval)
	setString(&cfg.DownloadDir, jc.DownloadDir)

	st := &cfg.Storage
	setString(&st.Backend, jc.Storage.Backend)
	setString(&st.BaseURL, jc.Storage.BaseURL)
	setString(&st.AuthSuffix, jc.Storage.AuthSuffix)
	setString(&st.Container, jc.Storage.Container)
	setString(&st.S3.Bucket, jc.Storage.S3.Bucket)
	setString(&st.S3.Region, jc.Storage.S3.Region)
	setString(&st.S3.BaseEndpoint, jc.Storage.S3.Endpoint)
	setString(&st.S3.AccessKey, jc.Storage.S3.AccessKey)
	setString(&st.S3.SecretKey, jc.Storage.S3.SecretKey)
	setString(&st.S3.Prefix, jc.Storage.S3.Prefix)
	if jc.Storage.S3.UsePathStyle != nil {
		st.S3.UsePathStyle = *jc.Storage.S3.UsePathStyle
	}

	ss := &cfg.Session
	setString(&ss.Store, jc.Session.Store)
	setString(&ss.SQLitePath, jc.Session.SQLitePath)
	setString(&ss.RedisAddr, jc.Session.RedisAddr)
	setString(&ss.RedisPassword, jc.Session.RedisPassword)
	if jc.Session.RedisDB != nil {
		ss.RedisDB = *jc.Session.RedisDB
	}
	setString(&ss.RedisPrefix, jc.Session.RedisPrefix)
	setDuration(&ss.TTL, jc.Session.TTL)

	a := &cfg.Auth
	setString(&a.Mode, jc.Auth.Mode)
	setString(&a.Token, jc.Auth.Token)
	setString(&a.Issuer, jc.Auth.Issuer)
	setString(&a.ClientID, jc.Auth.ClientID)
	setString(&a.ClientSecret, jc.Auth.ClientSecret)
	if len(jc.Auth.Scopes) > 0 {
		a.Scopes = jc.Auth.Scopes
	}

	setString(&cfg.Log.Level, jc.Log.Level)
	setString(&cfg.Log.Format, jc.Log.Format)
}
