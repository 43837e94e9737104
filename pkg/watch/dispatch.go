package watch

import "runtime"

// job is a fully-built closure record: everything the dispatcher needs has
// already been copied out of the registry and out of the watch entry by
// the time a job exists, so running it never touches the registry lock.
type job struct {
	ctx    Context
	fn     func()
	target any // kept alive through fn's execution; see runtime.KeepAlive below
}

// snapshot walks the watch list under lock, resolving each target's strong
// reference and asking build to produce a closure bound to that watch's
// callbacks (or nil to skip a watch whose callback doesn't care about this
// signal kind). The lock is released before any closure runs.
func (r *Registry) snapshot(build func(cb Callbacks) func()) []job {
	r.mu.Lock()
	jobs := make([]job, 0, len(r.watches))
	for _, w := range r.watches {
		target, alive := w.resolve()
		if !alive {
			// Dying concurrently; its cleanup will (or already did) remove
			// the entry. Skip it rather than racing runtime.AddCleanup.
			continue
		}
		fn := build(w.callbacks)
		if fn == nil {
			continue
		}
		jobs = append(jobs, job{ctx: w.ctx, target: target, fn: fn})
	}
	r.mu.Unlock()
	return jobs
}

// run dispatches each job: posted to its context's work queue if it has
// one, invoked synchronously on the current goroutine otherwise.
func (r *Registry) run(jobs []job) {
	for _, j := range jobs {
		target, fn := j.target, j.fn
		wrapped := func() {
			fn()
			runtime.KeepAlive(target)
		}
		if j.ctx != nil {
			j.ctx.Post(wrapped)
		} else {
			wrapped()
		}
	}
}

// Changed fires the "changed" signal: the value of key may have changed.
func (r *Registry) Changed(backend any, key string, tag OriginTag) {
	b, k, t := backend, key, tag // duplicate the payload into every closure
	jobs := r.snapshot(func(cb Callbacks) func() {
		if cb.OnChanged == nil {
			return nil
		}
		return func() { cb.OnChanged(b, k, t) }
	})
	r.run(jobs)
}

// KeysChanged fires the "keys_changed" signal: for each k in keys, dir+k
// may have changed.
func (r *Registry) KeysChanged(backend any, dir string, keys []string, tag OriginTag) {
	b, d, t := backend, dir, tag
	ks := append([]string(nil), keys...) // duplicate the slice too
	jobs := r.snapshot(func(cb Callbacks) func() {
		if cb.OnKeysChanged == nil {
			return nil
		}
		return func() { cb.OnKeysChanged(b, d, append([]string(nil), ks...), t) }
	})
	r.run(jobs)
}

// PathChanged fires the "path_changed" signal: any key with prefix dir may
// have changed.
func (r *Registry) PathChanged(backend any, dir string, tag OriginTag) {
	b, d, t := backend, dir, tag
	jobs := r.snapshot(func(cb Callbacks) func() {
		if cb.OnPathChanged == nil {
			return nil
		}
		return func() { cb.OnPathChanged(b, d, t) }
	})
	r.run(jobs)
}

// WritableChanged fires the "writable_changed" signal. It always
// originates from an external event, so it carries no origin tag.
func (r *Registry) WritableChanged(backend any, key string) {
	b, k := backend, key
	jobs := r.snapshot(func(cb Callbacks) func() {
		if cb.OnWritableChanged == nil {
			return nil
		}
		return func() { cb.OnWritableChanged(b, k) }
	})
	r.run(jobs)
}

// PathWritableChanged fires the "path_writable_changed" signal.
func (r *Registry) PathWritableChanged(backend any, dir string) {
	b, d := backend, dir
	jobs := r.snapshot(func(cb Callbacks) func() {
		if cb.OnPathWritableChanged == nil {
			return nil
		}
		return func() { cb.OnPathWritableChanged(b, d) }
	})
	r.run(jobs)
}
