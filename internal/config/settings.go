package config

import (
	"strings"
	"time"
)

// Settings is an immutable snapshot of the configuration, read once at
// startup and injected into the components that need it.
type Settings struct {
	HTTPPort       string
	RoutePrefix    string
	RouteSlug      string
	SlugConfigured bool
	BlockedIPs     []string
	TrustedProxies []string
	RateLimit      int
	RateInterval   time.Duration

	StorageType string
	MediaDir    string
	BaseURL     string
	TempDir     string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3Prefix    string
	S3PublicURL string

	MaxFileSize    int64
	FetchTimeout   time.Duration
	UserAgent      string
	ThumbnailSizes []string

	// FetchAllowPrivate permits downloads from loopback and private networks
	FetchAllowPrivate bool

	DatabaseType string
	DatabasePath string

	Debug bool

	SweepSchedule string
	SweepMaxAge   time.Duration
}

// Load builds a Settings snapshot from the initialized configuration
func Load() Settings {
	s := Settings{
		HTTPPort:       GetString("server.http_port"),
		RoutePrefix:    GetString("server.route_prefix"),
		RouteSlug:      strings.Trim(GetString("server.route_slug"), "/ "),
		BlockedIPs:     GetStringSlice("server.blocked_ips"),
		TrustedProxies: GetStringSlice("server.trusted_proxies"),
		RateLimit:      GetInt("server.rate_limit"),
		RateInterval:   GetDuration("server.rate_interval"),

		StorageType: GetString("storage.type"),
		MediaDir:    GetString("storage.media_dir"),
		BaseURL:     strings.TrimRight(GetString("storage.base_url"), "/"),
		TempDir:     GetString("storage.temp_dir"),
		S3Bucket:    GetString("storage.s3.bucket"),
		S3Region:    GetString("storage.s3.region"),
		S3Endpoint:  GetString("storage.s3.endpoint"),
		S3Prefix:    GetString("storage.s3.prefix"),
		S3PublicURL: strings.TrimRight(GetString("storage.s3.public_url"), "/"),

		MaxFileSize:    GetInt64("upload.max_file_size"),
		FetchTimeout:   GetDuration("fetch.timeout"),
		UserAgent:      GetString("fetch.user_agent"),
		ThumbnailSizes: GetStringSlice("media.thumbnail_sizes"),

		FetchAllowPrivate: GetBool("fetch.allow_private_networks"),

		DatabaseType: GetString("database.type"),
		DatabasePath: GetString("database.path"),

		Debug: GetBool("logging.debug"),

		SweepSchedule: GetString("sweeper.schedule"),
		SweepMaxAge:   GetDuration("sweeper.max_age"),
	}

	s.SlugConfigured = s.RouteSlug != ""
	if !s.SlugConfigured {
		s.RouteSlug = DefaultRouteSlug
	}
	if s.RoutePrefix == "" {
		s.RoutePrefix = "/api/v2"
	}
	if s.FetchTimeout <= 0 {
		s.FetchTimeout = 300 * time.Second
	}

	return s
}

// UploadRoute returns the full path of the sideload endpoint
func (s Settings) UploadRoute() string {
	return "/" + strings.Trim(s.RoutePrefix, "/") + "/" + s.RouteSlug
}
