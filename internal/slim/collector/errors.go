package collector

import "errors"

var (
	errIndexOutOfRange = errors.New("collector: chunk index >= chunk count")
	errSenderMismatch  = errors.New("collector: chunk sender disagrees with snowflake's established sender")
	errCountMismatch   = errors.New("collector: chunk count disagrees with snowflake's established count")
)
