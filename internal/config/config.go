package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries process configuration for the pipeline binaries.
type Config struct {
	Env      string
	HTTPAddr string

	// Object storage
	StorageBackend string // "s3", "filesystem" or "memory"
	StorageDir     string
	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3PathStyle    bool
	RetryAttempts  int

	// Ingress
	SQSQueueURL string

	// Orchestration
	StateMachineArn string

	// DBOS (standalone local trigger)
	DBOSDatabaseURL string
	DBOSQueueName   string
	DBOSConcurrency int
}

// Load reads configuration from the environment, honoring a .env file when
// present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:             getenv("APP_ENV", "development"),
		HTTPAddr:        getenv("PIPELINE_HTTP_ADDR", ":8080"),
		StorageBackend:  getenv("STORAGE_BACKEND", "filesystem"),
		StorageDir:      getenv("STORAGE_DIR", "./dev-data"),
		S3Endpoint:      os.Getenv("S3_ENDPOINT"),
		S3Region:        getenv("AWS_REGION", "us-east-1"),
		S3Bucket:        getenv("MEDIA_BUCKET", "listing-medias"),
		S3AccessKey:     os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:     os.Getenv("S3_SECRET_KEY"),
		S3PathStyle:     getbool("S3_PATH_STYLE", false),
		RetryAttempts:   getint("STORAGE_RETRY_ATTEMPTS", 3),
		SQSQueueURL:     os.Getenv("SQS_QUEUE_URL"),
		StateMachineArn: os.Getenv("STATE_MACHINE_ARN"),
		DBOSDatabaseURL: os.Getenv("DBOS_SYSTEM_DATABASE_URL"),
		DBOSQueueName:   getenv("DBOS_QUEUE_NAME", "default"),
		DBOSConcurrency: getint("DBOS_CONCURRENCY", 4),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
