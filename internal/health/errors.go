package health

import "errors"

var ErrListenFailed = errors.New("failed to listen on health address")
