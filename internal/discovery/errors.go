package discovery

import "errors"

// ErrPublishFailed reports that some publishes of a batch failed.
var ErrPublishFailed = errors.New("discovery: publish failed")
