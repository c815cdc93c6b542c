package config

import "time"

type InternalConfig struct {
	App      App
	Paynow   AppPaynow
	Workflow AppWorkflow
	Sweeper  AppSweeper
	Receipt  AppReceipt
	Prompt   AppPrompt
	RabbitMQ AppRabbitMQ
	Minio    AppMinio
}

type App struct {
	Env                        string
	Port                       string
	Version                    string
	Address                    string
	Timezone                   string
	EndpointPrefix             string
	MaxRequests                int
	ShutdownTimeout            int
	MaxTimeRequestsPerSeconds  int
	RequestBodyLimitInMegabyte int
}

// AppPaynow holds the merchant integration issued by Paynow.
type AppPaynow struct {
	IntegrationID         string
	IntegrationKey        string
	InitiateURL           string
	ReturnURL             string
	ResultURL             string
	AuthEmail             string
	Method                string
	RequestTimeout        time.Duration
	PollRequestsPerSecond float64
	PollBurst             int
}

type AppWorkflow struct {
	GraceDelay          time.Duration
	PollInterval        time.Duration
	ConfirmationTimeout time.Duration
	LockMargin          time.Duration
}

// LockTTL covers the longest a single workflow can hold its intent key.
func (w AppWorkflow) LockTTL() time.Duration {
	return w.GraceDelay + w.ConfirmationTimeout + w.LockMargin
}

type AppSweeper struct {
	CronSpec string
	StaleAge time.Duration
}

// AppPrompt caps EcoCash prompts per payer phone. MaxPrompts 0 disables it.
type AppPrompt struct {
	Window     time.Duration
	MaxPrompts int
}

type AppReceipt struct {
	Prefix        string
	SnowflakeNode int64
}

type AppRabbitMQ struct {
	SettlementQueue string
}

type AppMinio struct {
	ReceiptBucketName string
}
