package buflog

/*
Background consumer. One goroutine per Registry, started lazily by the first
file-bound message, repeatedly runs FlushPass() and sleeps FlushInterval
without holding the lock so producers can enqueue and new loggers can
register in between.

The goroutine runs for the lifetime of the process: there is no stop
handle. FlushAll/CloseAll and Logger.Flush/Close are the deterministic
drains for controlled shutdown.
*/

import "time"

// startConsumer launches the consumer goroutine unless it already runs or
// the registry is in manual flush mode.
func (r *Registry) startConsumer() {
	if r.cfg.ManualFlush {
		return
	}
	r.consumer.Do(func() {
		r.started.Store(true)
		r.internalf(LVL_INFO, _NOTE_CONSUMER_STARTED)
		go r.procced()
	})
}

// ConsumerStarted reports whether the background goroutine was launched.
func (r *Registry) ConsumerStarted() bool {
	return r.started.Load()
}

// procced is the consumer loop. It never returns.
func (r *Registry) procced() {
	for {
		r.safePass()
		time.Sleep(r.cfg.FlushInterval)
	}
}

// safePass runs one FlushPass and converts a panic (from a misbehaving
// FileSystem or Console) into a console report so the loop survives. The
// deferred unlock in FlushPass releases the mutex before recover runs here.
func (r *Registry) safePass() {
	defer func() {
		if rec := recover(); rec != nil {
			r.internalf(LVL_CRITICAL, "%s%s", _ERROR_MESSAGE_CONSUMER_PANIC, panicDesc(rec))
		}
	}()
	r.FlushPass()
}
