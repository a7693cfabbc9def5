package errclass

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Record is one entry of the error log.
type Record struct {
	Time    time.Time `json:"time"`
	Context string    `json:"context"`
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	Detail  string    `json:"detail,omitempty"`
}

// Classifier classifies failures and appends every classification to an
// in-memory log. It is safe for concurrent use.
type Classifier struct {
	mu      sync.Mutex
	records []Record
	debug   bool
	log     zerolog.Logger
	now     func() time.Time
}

// New returns a Classifier. debug controls Render for unclassified failures.
func New(debug bool, log zerolog.Logger) *Classifier {
	return &Classifier{debug: debug, log: log, now: time.Now}
}

// Debug reports whether technical details are shown for every kind.
func (c *Classifier) Debug() bool { return c.debug }

// Classify maps (category, context) to a kind, logs it, and appends it to the
// error log. It never panics: an unexpected internal failure degrades to an
// unclassified result.
func (c *Classifier) Classify(cat Category, context string, err error) (out *Classified) {
	defer func() {
		if r := recover(); r != nil {
			out = &Classified{
				Kind:    KindUnclassified,
				Context: context,
				Title:   policies[KindUnclassified].title,
				Message: policies[KindUnclassified].message,
				Detail:  fmt.Sprintf("classification panic: %v", r),
				Err:     err,
				status:  policies[KindUnclassified].status,
			}
		}
	}()

	if context == "" {
		context = "unknown"
	}
	kind := kindFor(cat)
	p := policies[kind]
	out = &Classified{
		Kind:      kind,
		Context:   context,
		Title:     p.title,
		Message:   p.message,
		Retryable: p.retryable,
		Err:       err,
		technical: p.technical,
		status:    p.status,
	}
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
		out.Detail = msg
		var d detailer
		if errors.As(err, &d) && d.Detail() != "" {
			out.Detail = d.Detail()
		}
	}
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	c.append(Record{Time: now(), Context: context, Kind: kind, Message: msg, Detail: out.Detail})
	c.log.Error().Str("context", context).Str("kind", string(kind)).Str("category", cat.String()).Msg(msg)
	if out.Detail != msg {
		c.log.Debug().Str("context", context).Msg(out.Detail)
	}
	return out
}

// Render renders cl under this classifier's debug setting.
func (c *Classifier) Render(cl *Classified) string {
	if cl == nil {
		return ""
	}
	return cl.Render(c.debug)
}

// Log returns a copy of the error log in insertion order.
func (c *Classifier) Log() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

func (c *Classifier) append(r Record) {
	c.mu.Lock()
	c.records = append(c.records, r)
	c.mu.Unlock()
}

func kindFor(cat Category) Kind {
	switch cat {
	case CategoryResourceExhausted:
		return KindResourceExhaustion
	case CategoryRuntime:
		return KindTransient
	case CategoryTimeout:
		return KindTimeout
	default:
		return KindUnclassified
	}
}
