package worker

import (
	appAudit "github.com/Zhima-Mochi/minishop-checkout/internal/application/audit"
	domoutbox "github.com/Zhima-Mochi/minishop-checkout/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
	workerpresentation "github.com/Zhima-Mochi/minishop-checkout/internal/presentation/worker"
)

const component = "audit_worker"

// Worker feeds checkout events from the bus into the audit recorder.
type Worker struct {
	subscriber domoutbox.Subscriber
	recorder   *appAudit.Recorder
	tel        observability.Observability
}

func New(subscriber domoutbox.Subscriber, recorder *appAudit.Recorder, tel observability.Observability) *Worker {
	return &Worker{subscriber: subscriber, recorder: recorder, tel: tel}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.recorder == nil {
		return
	}
	h := workerpresentation.Handle(w.tel, component, w.recorder.Record)
	for _, name := range appAudit.Events {
		w.subscriber.Subscribe(name, h)
	}
}
