package config

const EnvPrefix = "STOREFRONT"

const (
	StoreDriverSQL   = "sql"
	StoreDriverRedis = "redis"
)

const (
	PushTransportWebSocket = "websocket"
	PushTransportRedis     = "redis"
	PushTransportAMQP      = "amqp"
	PushTransportNone      = "none"
)

const (
	EnvAppEnv          = "STOREFRONT_APP_ENV"
	EnvPort            = "STOREFRONT_APP_PORT"
	EnvLogLevel        = "STOREFRONT_LOG_LEVEL"
	EnvCORSOrigins     = "STOREFRONT_CORS_ORIGINS"
	EnvCatalogBaseURL  = "STOREFRONT_CATALOG_BASE_URL"
	EnvCatalogTimeout  = "STOREFRONT_CATALOG_TIMEOUT"
	EnvRefreshInterval = "STOREFRONT_REFRESH_INTERVAL"
	EnvPushTransport   = "STOREFRONT_PUSH_TRANSPORT"
	EnvPushURL         = "STOREFRONT_PUSH_URL"
	EnvPushRetryDelay  = "STOREFRONT_PUSH_RETRY_DELAY"
	EnvPushChannel     = "STOREFRONT_PUSH_CHANNEL"
	EnvCartName        = "STOREFRONT_CART_NAME"
	EnvStoreDriver     = "STOREFRONT_STORE_DRIVER"
	EnvDBDriver        = "STOREFRONT_DB_DRIVER"
	EnvDBDSN           = "STOREFRONT_DB_DSN"
	EnvRedisURL        = "STOREFRONT_REDIS_URL"
	EnvAMQPURL         = "STOREFRONT_AMQP_URL"
)
