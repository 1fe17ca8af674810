// internal/workers/installment/initialize-installment-payment/config.go
package initializeinstallmentpayment

import (
	"time"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func ConfigFrom(wcfg config.WorkerConfig) *Config {
	timeout := config.GetDuration(wcfg.Timeout)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Config{Timeout: timeout}
}
