package config

import (
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/utils"
	"time"

	"github.com/joho/godotenv"
)

func init() {
	godotenv.Load()
}

func NewDriverConfig() *DriverConfig {
	return &DriverConfig{
		Postgres: Postgres{
			Host:            utils.GetEnvString("POSTGRES_HOST", "localhost"),
			Port:            utils.GetEnvString("POSTGRES_PORT", "5432"),
			Username:        utils.GetEnvString("POSTGRES_USERNAME", "postgres"),
			Password:        utils.GetEnvString("POSTGRES_PASSWORD", "postgres"),
			DbName:          utils.GetEnvString("POSTGRES_DB_NAME", "maternity"),
			SSLMode:         utils.GetEnvString("POSTGRES_SSL_MODE", "disable"),
			MaxOpenConns:    utils.GetEnvInt("POSTGRES_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    utils.GetEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: utils.GetEnvInt("POSTGRES_CONN_MAX_LIFETIME_IN_MINUTES", 30),
		},
		MongoDB: MongoDB{
			Port:     utils.GetEnvString("MONGODB_PORT", "27017"),
			Host:     utils.GetEnvString("MONGODB_HOST", "localhost"),
			Username: utils.GetEnvString("MONGODB_USERNAME", "defaultUsername"),
			Password: utils.GetEnvString("MONGODB_PASSWORD", "defaultPassword"),
			DbName:   utils.GetEnvString("MONGODB_DB_NAME", "maternity"),
		},
		Redis: Redis{
			Host:     utils.GetEnvString("REDIS_HOST", "localhost"),
			Port:     utils.GetEnvString("REDIS_PORT", "6379"),
			Password: utils.GetEnvString("REDIS_PASSWORD", ""),
		},
		Logger: Logger{
			Level:               utils.GetEnvString("LOGGER_LEVEL", "debug"),
			OutputFileName:      utils.GetEnvString("LOGGER_OUTPUT_FILENAME", "logger.log"),
			OutputErrorFileName: utils.GetEnvString("LOGGER_OUTPUT_ERROR_FILENAME", "logger_error.log"),
		},
		RabbitMQ: RabbitMQ{
			Port:     utils.GetEnvString("RABBITMQ_PORT", "5672"),
			Host:     utils.GetEnvString("RABBITMQ_HOST", "localhost"),
			Username: utils.GetEnvString("RABBITMQ_USERNAME", "guest"),
			Password: utils.GetEnvString("RABBITMQ_PASSWORD", "guest"),
		},
		Minio: Minio{
			Port:     utils.GetEnvString("MINIO_PORT", "9000"),
			Host:     utils.GetEnvString("MINIO_HOST", "localhost"),
			Username: utils.GetEnvString("MINIO_USERNAME", "minioadmin"),
			Password: utils.GetEnvString("MINIO_PASSWORD", "minioadmin"),
			UseSSL:   utils.GetEnvBool("MINIO_USE_SSL", false),
		},
	}
}

func NewInternalConfig() *InternalConfig {
	return &InternalConfig{
		App: App{
			Env:                        utils.GetEnvString("APP_ENV", constvars.AppEnvDevelopment),
			Port:                       utils.GetEnvString("APP_PORT", "8080"),
			Version:                    utils.GetEnvString("APP_VERSION", "v1"),
			Address:                    utils.GetEnvString("APP_ADDRESS", "localhost"),
			Timezone:                   utils.GetEnvString("APP_TIMEZONE", "Africa/Harare"),
			EndpointPrefix:             utils.GetEnvString("APP_ENDPOINT_PREFIX", "api"),
			MaxRequests:                utils.GetEnvInt("APP_MAX_REQUEST", 60),
			ShutdownTimeout:            utils.GetEnvInt("APP_SHUTDOWN_TIMEOUT", 10),
			MaxTimeRequestsPerSeconds:  utils.GetEnvInt("APP_MAX_TIME_REQUESTS_PER_SECONDS", 60),
			RequestBodyLimitInMegabyte: utils.GetEnvInt("APP_REQUEST_BODY_LIMIT_IN_MEGABYTE", 1),
		},
		Paynow: AppPaynow{
			IntegrationID:         utils.GetEnvString("PAYNOW_INTEGRATION_ID", ""),
			IntegrationKey:        utils.GetEnvString("PAYNOW_INTEGRATION_KEY", ""),
			InitiateURL:           utils.GetEnvString("PAYNOW_INITIATE_URL", constvars.PaynowDefaultInitiateURL),
			ReturnURL:             utils.GetEnvString("PAYNOW_RETURN_URL", "http://localhost:8080/return"),
			ResultURL:             utils.GetEnvString("PAYNOW_RESULT_URL", "http://localhost:8080/result"),
			AuthEmail:             utils.GetEnvString("PAYNOW_AUTH_EMAIL", ""),
			Method:                utils.GetEnvString("PAYNOW_METHOD", constvars.PaynowDefaultMethod),
			RequestTimeout:        utils.GetEnvDuration("PAYNOW_REQUEST_TIMEOUT", 15*time.Second),
			PollRequestsPerSecond: utils.GetEnvFloat("PAYNOW_POLL_REQUESTS_PER_SECOND", 5),
			PollBurst:             utils.GetEnvInt("PAYNOW_POLL_BURST", 10),
		},
		Workflow: AppWorkflow{
			GraceDelay:          utils.GetEnvDuration("WORKFLOW_GRACE_DELAY", 10*time.Second),
			PollInterval:        utils.GetEnvDuration("WORKFLOW_POLL_INTERVAL", 5*time.Second),
			ConfirmationTimeout: utils.GetEnvDuration("WORKFLOW_CONFIRMATION_TIMEOUT", 2*time.Minute),
			LockMargin:          utils.GetEnvDuration("WORKFLOW_LOCK_MARGIN", 30*time.Second),
		},
		Sweeper: AppSweeper{
			CronSpec: utils.GetEnvString("SWEEPER_CRON_SPEC", "@every 1m"),
			StaleAge: utils.GetEnvDuration("SWEEPER_STALE_AGE", 5*time.Minute),
		},
		Prompt: AppPrompt{
			Window:     utils.GetEnvDuration("PROMPT_LIMIT_WINDOW", 10*time.Minute),
			MaxPrompts: utils.GetEnvInt("PROMPT_LIMIT_MAX_PROMPTS", 5),
		},
		Receipt: AppReceipt{
			Prefix:        utils.GetEnvString("RECEIPT_PREFIX", "MTRN"),
			SnowflakeNode: int64(utils.GetEnvInt("RECEIPT_SNOWFLAKE_NODE", 1)),
		},
		RabbitMQ: AppRabbitMQ{
			SettlementQueue: utils.GetEnvString("APP_RABBITMQ_SETTLEMENT_QUEUE", "payment.settlements"),
		},
		Minio: AppMinio{
			ReceiptBucketName: utils.GetEnvString("APP_MINIO_RECEIPT_BUCKET_NAME", "receipts"),
		},
	}
}
