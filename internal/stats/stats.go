package stats

import (
	"expvar"
	"iter"
	"maps"
	"slices"
	"strconv"
)

// Stats holds expvar-backed counters of a wc run and publishes them under a
// common key prefix. All counters are expvar.Map and are safe for concurrent
// updates. When the standard expvar HTTP handler is registered, these values
// are available at /debug/vars.
//
// - wc_inputs_total: byte sources wc tried to open (file or stdin)
// - wc_inputs_errors: byte sources that could not be opened
// - wc_bytes_total: bytes fed to the classifier
// - wc_reads_errors: passes stopped early by a read error
type Stats struct {
	prefix string
	root   *expvar.Map
	inputs *expvar.Map
	bytes  *expvar.Map
	reads  *expvar.Map
}

// New publishes new set of metrics. Registering the same metrics twice causes panic, so for tests, the prefix should be unique.
func New(prefix string) *Stats {
	root := expvar.NewMap(prefix)
	inputs := new(expvar.Map).Init()
	bytes := new(expvar.Map).Init()
	reads := new(expvar.Map).Init()

	inputs.Add("total", 0)
	inputs.Add("errors", 0)
	bytes.Add("total", 0)
	reads.Add("errors", 0)

	root.Set("inputs", inputs)
	root.Set("bytes", bytes)
	root.Set("reads", reads)

	return &Stats{
		prefix: prefix,
		root:   root,
		inputs: inputs,
		bytes:  bytes,
		reads:  reads,
	}
}

func (s *Stats) IncInputs() {
	s.inputs.Add("total", 1)
}
func (s *Stats) IncErrInputs() {
	s.inputs.Add("errors", 1)
}
func (s *Stats) IncErrReads() {
	s.reads.Add("errors", 1)
}

func (s *Stats) AddBytes(n uint64) {
	s.bytes.Add("total", int64(n))
}

// Bytes returns the current value of the byte counter
func (s *Stats) Bytes() uint64 {
	v, ok := s.bytes.Get("total").(*expvar.Int)
	if !ok {
		return 0
	}
	return uint64(v.Value())
}

// Stats returns a name, value iterator across registered metrics. This uses expvar.Do under the hood, so is safe to be called concurrently.
// Stats are returned in an alphabetic order.
func (s *Stats) Stats() iter.Seq2[string, string] {
	stats := make(map[string]string, 4)
	for name, m := range map[string]*expvar.Map{"inputs": s.inputs, "bytes": s.bytes, "reads": s.reads} {
		m.Do(func(kv expvar.KeyValue) {
			stats[name+"_"+kv.Key] = kv.Value.String()
		})
	}

	keys := slices.Sorted(maps.Keys(stats))
	return func(yield func(string, string) bool) {
		for _, key := range keys {
			if !yield(s.prefix+"_"+key, stats[key]) {
				return
			}
		}
	}
}

// Attrs is a convenience for structured logging
func (s *Stats) Attrs() []any {
	var ret []any
	for k, v := range s.Stats() {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			ret = append(ret, k, n)
			continue
		}
		ret = append(ret, k, v)
	}
	return ret
}
