package constants

// 购物车存储后端
const (
	CartStorageMemory   = "memory"
	CartStorageFile     = "file"
	CartStorageRedis    = "redis"
	CartStorageDatabase = "database"
)

// CartRecordVersion 购物车持久化记录版本
const CartRecordVersion = 1

// 购物车会话
const (
	CartSessionCookie  = "fs_cart_session"
	CartSessionHeader  = "X-Cart-Session"
	CartSessionContext = "cart_session_id"
)

// 队列相关常量
const (
	QueueDefault          = "default"
	TaskCheckoutReceipt   = "checkout:receipt"
	CheckoutStatusPaid    = "succeeded"
	CheckoutStatusPending = "processing"
)
