package locals

import "github.com/goliatone/go-locals/pkg/activity"

// WithActivityHooks attaches activity hooks notified after captures and watch
// evaluations. Hooks are cloned and nil entries dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *inspectorConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityChannel overrides the channel stamped on emitted events.
func WithActivityChannel(channel string) Option {
	return func(cfg *inspectorConfig) {
		cfg.activityChannel = channel
	}
}

// ActivityHooks returns a cloned slice of the configured hooks. The returned
// slice can be safely mutated by the caller.
func (i *Inspector) ActivityHooks() activity.Hooks {
	if i == nil {
		return nil
	}
	return cloneActivityHooks(i.cfg.activityHooks)
}

func (i *Inspector) emitter() *activity.Emitter {
	return activity.NewEmitter(i.cfg.activityHooks, activity.Config{
		Enabled: len(i.cfg.activityHooks) > 0,
		Channel: i.cfg.activityChannel,
	})
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	var normalized activity.Hooks
	for _, hook := range hooks {
		if hook != nil {
			normalized = append(normalized, hook)
		}
	}
	return normalized
}
