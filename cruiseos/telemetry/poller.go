package telemetry

import (
	"context"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// TimerStats is the expiry count of one software timer.
type TimerStats struct {
	Name     string
	Expiries uint64
}

// TaskStats is the release backlog of one periodic task.
type TaskStats struct {
	Name    string
	Pending uint32
}

// MailboxStats counts the traffic through one mailbox.
type MailboxStats struct {
	Name        string
	Sent        uint64
	Overwritten uint64
}

// KernelStats is a point-in-time view of the kernel objects and the trace.
type KernelStats struct {
	Timers    []TimerStats
	Tasks     []TaskStats
	Mailboxes []MailboxStats

	TraceWritten uint64
	TraceDropped uint64
}

// KernelSnapshotProvider provides current kernel stats snapshots.
type KernelSnapshotProvider interface {
	KernelStats() KernelStats
}

// KernelPoller periodically exports KernelStats snapshots into Prometheus
// gauges. Counts only grow, so the *_total series behave as counters.
type KernelPoller struct {
	interval time.Duration
	provider KernelSnapshotProvider

	timerExpiries  *prom.GaugeVec
	releaseBacklog *prom.GaugeVec
	mailboxSent    *prom.GaugeVec
	mailboxOver    *prom.GaugeVec
	traceWritten   prom.Gauge
	traceDropped   prom.Gauge
}

// NewKernelPoller creates a poller for provider and registers its collectors.
func NewKernelPoller(namespace string, reg prom.Registerer, interval time.Duration, provider KernelSnapshotProvider) (*KernelPoller, error) {
	if namespace == "" {
		namespace = "cruise"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	p := &KernelPoller{
		interval: interval,
		provider: provider,
		timerExpiries: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "timer_expiries_total",
			Help:      "Software timer expiries snapshot.",
		}, []string{"timer"}),
		releaseBacklog: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "task_release_backlog",
			Help:      "Releases signalled but not yet consumed per task.",
		}, []string{"task"}),
		mailboxSent: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "mailbox_sends_total",
			Help:      "Values sent per mailbox.",
		}, []string{"mailbox"}),
		mailboxOver: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "mailbox_overwrites_total",
			Help:      "Sends that replaced an unconsumed value per mailbox.",
		}, []string{"mailbox"}),
		traceWritten: gauge(namespace, "trace_records_total", "Trace records written."),
		traceDropped: gauge(namespace, "trace_dropped_total", "Trace records dropped on a full queue."),
	}

	var err error
	if p.timerExpiries, err = registerCollector(reg, p.timerExpiries); err != nil {
		return nil, err
	}
	if p.releaseBacklog, err = registerCollector(reg, p.releaseBacklog); err != nil {
		return nil, err
	}
	if p.mailboxSent, err = registerCollector(reg, p.mailboxSent); err != nil {
		return nil, err
	}
	if p.mailboxOver, err = registerCollector(reg, p.mailboxOver); err != nil {
		return nil, err
	}
	if p.traceWritten, err = registerCollector(reg, p.traceWritten); err != nil {
		return nil, err
	}
	if p.traceDropped, err = registerCollector(reg, p.traceDropped); err != nil {
		return nil, err
	}
	return p, nil
}

// Run polls until ctx is done and takes a last snapshot on the way out.
func (p *KernelPoller) Run(ctx context.Context) error {
	if p == nil {
		return nil
	}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()
	for {
		select {
		case <-ctx.Done():
			p.collectOnce()
			return nil
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *KernelPoller) collectOnce() {
	if p.provider == nil {
		return
	}
	stats := p.provider.KernelStats()
	for _, t := range stats.Timers {
		p.timerExpiries.WithLabelValues(normalizeLabel(t.Name)).Set(float64(t.Expiries))
	}
	for _, t := range stats.Tasks {
		p.releaseBacklog.WithLabelValues(normalizeLabel(t.Name)).Set(float64(t.Pending))
	}
	for _, mb := range stats.Mailboxes {
		name := normalizeLabel(mb.Name)
		p.mailboxSent.WithLabelValues(name).Set(float64(mb.Sent))
		p.mailboxOver.WithLabelValues(name).Set(float64(mb.Overwritten))
	}
	p.traceWritten.Set(float64(stats.TraceWritten))
	p.traceDropped.Set(float64(stats.TraceDropped))
}
