package xmlbind

import "go.uber.org/zap"

type options struct {
	registry   *Registry
	namespaces map[string]string
	logger     *zap.Logger
	coercer    Coercer
	provider   DocumentProvider
}

// Option is a functional option for configuring a parse.
type Option func(*options)

func newOptions(opts []Option) *options {
	o := &options{
		registry: defaultRegistry,
		logger:   zap.NewNop(),
		coercer:  DefaultCoercer{},
		provider: EtreeProvider{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithNamespaces sets the namespace mappings used to resolve the prefixes
// of declarations. The map keys are prefixes used in declarations and tags
// (e.g., "ns1"), the values the full namespace URIs. A declared namespace
// that is not a known prefix is compared as a URI.
func WithNamespaces(namespaces map[string]string) Option {
	return func(o *options) {
		o.namespaces = namespaces
	}
}

// WithLogger sets the logger used for debug output while binding.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.logger = log
		}
	}
}

// WithCoercer replaces DefaultCoercer.
func WithCoercer(c Coercer) Option {
	return func(o *options) {
		o.coercer = c
	}
}

// WithDocumentProvider replaces the etree based document reader.
func WithDocumentProvider(p DocumentProvider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithRegistry selects the registry schemas are looked up in. Parse and
// NewDecoder use the default registry otherwise.
func WithRegistry(r *Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

func (o *options) resolveNamespace(ns string) string {
	if uri, ok := o.namespaces[ns]; ok {
		return uri
	}
	return ns
}
