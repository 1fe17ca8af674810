// cmd/worker-manager/workers.go
package main

import (
	"go.uber.org/zap"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/camunda"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/config"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/logger"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/installment"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/lifecycle"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/payment"

	aia "github.com/vmaktproject-ai/renewableZmart-sub001/internal/workers/installment/approve-installment-application"
	cip "github.com/vmaktproject-ai/renewableZmart-sub001/internal/workers/installment/compute-installment-plan"
	cnp "github.com/vmaktproject-ai/renewableZmart-sub001/internal/workers/installment/confirm-installment-payment"
	iip "github.com/vmaktproject-ai/renewableZmart-sub001/internal/workers/installment/initialize-installment-payment"
	ria "github.com/vmaktproject-ai/renewableZmart-sub001/internal/workers/installment/reject-installment-application"
	sia "github.com/vmaktproject-ai/renewableZmart-sub001/internal/workers/installment/submit-installment-application"
	vai "github.com/vmaktproject-ai/renewableZmart-sub001/internal/workers/installment/verify-applicant-identity"
)

type deps struct {
	policy   installment.Policy
	verifier vai.IdentityVerifier
	service  *lifecycle.Service
	gateway  *payment.Gateway
	log      logger.Logger
}

func registerWorkers(reg *camunda.Registry, cfg *config.Config, d deps, log *zap.Logger) {
	start := func(taskType string, handler camunda.JobHandler) {
		if !config.IsWorkerEnabled(cfg, taskType) {
			log.Info("worker disabled", zap.String("taskType", taskType))
			return
		}
		wcfg := config.GetWorkerConfig(cfg, taskType)
		reg.Open(camunda.WorkerSpec{
			TaskType:      taskType,
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
			Handler:       handler,
		})
	}

	workerConfig := func(taskType string) config.WorkerConfig {
		return config.GetWorkerConfig(cfg, taskType)
	}

	start(cip.TaskType, cip.NewHandler(cip.ConfigFrom(workerConfig(cip.TaskType)), d.policy, d.log).Handle)
	start(vai.TaskType, vai.NewHandler(vai.ConfigFrom(workerConfig(vai.TaskType)), d.verifier, d.log).Handle)
	start(sia.TaskType, sia.NewHandler(sia.ConfigFrom(workerConfig(sia.TaskType)), d.service, d.log).Handle)
	start(aia.TaskType, aia.NewHandler(aia.ConfigFrom(workerConfig(aia.TaskType)), d.service, d.log).Handle)
	start(ria.TaskType, ria.NewHandler(ria.ConfigFrom(workerConfig(ria.TaskType)), d.service, d.log).Handle)
	start(iip.TaskType, iip.NewHandler(iip.ConfigFrom(workerConfig(iip.TaskType)), d.service, d.log).Handle)
	start(cnp.TaskType, cnp.NewHandler(cnp.ConfigFrom(workerConfig(cnp.TaskType)), d.service, d.gateway, d.log).Handle)

	log.Info("workers registered", zap.Strings("taskTypes", reg.TaskTypes()))
}
