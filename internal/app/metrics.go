package app

// Metrics is the counter hook surface the engine reports into after each
// lifecycle transition. Aggregation and exposition live in an adapter.
type Metrics interface {
	ConnectionOpened()
	ConnectionClosed()
	MessageProcessed()
	RequestServed()
	ErrorTracked()
}

// NopMetrics discards every increment. Used in tests and as the default.
type NopMetrics struct{}

func (NopMetrics) ConnectionOpened() {}
func (NopMetrics) ConnectionClosed() {}
func (NopMetrics) MessageProcessed() {}
func (NopMetrics) RequestServed()    {}
func (NopMetrics) ErrorTracked()     {}
