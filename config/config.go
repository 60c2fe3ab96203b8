package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	AWS      AWSConfig
	Gemini   GeminiConfig
	Storage  StorageConfig
	Monitor  MonitorConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// AWSConfig holds AWS credentials and S3 bucket names.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	ReportsBucket        string
	PresignExpireMinutes int
}

// GeminiConfig holds text-generation settings. When APIKey is empty the
// service runs entirely on deterministic fallbacks.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// StorageConfig holds local artifact directories.
type StorageConfig struct {
	UploadsDir  string // uploaded resumes / audio
	ReportsDir  string // rendered PDF reports
	EvidenceDir string // monitoring evidence snapshots
	SessionTTL  int    // minutes an idle interview session stays in the store
}

// MonitorConfig holds the behavioral-monitoring pipeline settings. The
// monitor core receives this struct injected; it never reads the environment.
type MonitorConfig struct {
	CameraDevice   string // primary capture device (e.g. /dev/video0)
	FallbackDevice string // one fallback open attempt per run
	InputFormat    string // ffmpeg input format (v4l2, avfoundation, ...)
	FrameWidth     int
	FrameHeight    int
	FrameRate      int

	DetectorCommand string // landmark helper process; empty disables extraction
	EnableFace      bool
	EnablePose      bool
	EnableHands     bool
	MaxHands        int

	ShoulderTiltThreshold float64 // normalized units
	NeckSlumpDegThreshold float64 // degrees
	HandMoveThreshold     float64 // normalized units
	GazeDownThreshold     float64 // normalized units

	GazeStride    int // save gaze evidence when frame_id % stride == 0
	PostureStride int
	HandStride    int
	ExampleCap    int // max evidence entries per category

	ResetHandOnLoss bool // clear tracked hand position when no hand detected
}

// DSN returns the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", "postgres://localhost:5432/careermentor?sslmode=disable"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "careermentor"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", ""),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ReportsBucket:        getEnv("AWS_S3_REPORTS_BUCKET", "career-mentor-reports"),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 7*24*60),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		Storage: StorageConfig{
			UploadsDir:  getEnv("UPLOADS_DIR", "uploads"),
			ReportsDir:  getEnv("REPORTS_DIR", "reports"),
			EvidenceDir: getEnv("EVIDENCE_DIR", "reports/evidence"),
			SessionTTL:  getEnvInt("SESSION_TTL_MINUTES", 120),
		},
		Monitor: MonitorConfig{
			CameraDevice:   getEnv("MONITOR_CAMERA_DEVICE", "/dev/video0"),
			FallbackDevice: getEnv("MONITOR_FALLBACK_DEVICE", "/dev/video1"),
			InputFormat:    getEnv("MONITOR_INPUT_FORMAT", "v4l2"),
			FrameWidth:     getEnvInt("MONITOR_FRAME_WIDTH", 640),
			FrameHeight:    getEnvInt("MONITOR_FRAME_HEIGHT", 480),
			FrameRate:      getEnvInt("MONITOR_FRAME_RATE", 15),

			DetectorCommand: getEnv("MONITOR_DETECTOR_COMMAND", "scripts/landmark_worker.sh"),
			EnableFace:      getEnvBool("MONITOR_ENABLE_FACE", true),
			EnablePose:      getEnvBool("MONITOR_ENABLE_POSE", true),
			EnableHands:     getEnvBool("MONITOR_ENABLE_HANDS", true),
			MaxHands:        getEnvInt("MONITOR_MAX_HANDS", 2),

			ShoulderTiltThreshold: getEnvFloat("MONITOR_SHOULDER_TILT_THR", 0.06),
			NeckSlumpDegThreshold: getEnvFloat("MONITOR_NECK_SLUMP_DEG_THR", 12),
			HandMoveThreshold:     getEnvFloat("MONITOR_HAND_MOVE_THR", 0.03),
			GazeDownThreshold:     getEnvFloat("MONITOR_GAZE_DOWN_THR", 0.02),

			GazeStride:    getEnvInt("MONITOR_GAZE_STRIDE", 10),
			PostureStride: getEnvInt("MONITOR_POSTURE_STRIDE", 15),
			HandStride:    getEnvInt("MONITOR_HAND_STRIDE", 10),
			ExampleCap:    getEnvInt("MONITOR_EXAMPLE_CAP", 12),

			ResetHandOnLoss: getEnvBool("MONITOR_RESET_HAND_ON_LOSS", false),
		},
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return fallback
}
