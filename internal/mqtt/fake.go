package mqtt

// Message is a published payload recorded by FakeTransport.
type Message struct {
	Topic   string
	Payload []byte
}

// FakeTransport records calls and returns scripted errors.
// Scripted errors are consumed one per call; a nil entry means success.
// Once a script is exhausted the matching persistent error field applies.
type FakeTransport struct {
	ConnectScript []error
	PingScript    []error
	PublishScript []error

	ConnectError error
	PingError    error
	PublishError error

	// Connected mirrors the session state.
	Connected bool

	// Messages contains every successful publish.
	Messages []Message

	ConnectCalls    int
	PingCalls       int
	PublishCalls    int
	DisconnectCalls int
}

// NewFakeTransport creates a disconnected FakeTransport.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{}
}

// Connect succeeds unless an error is scripted. No-op when connected.
func (f *FakeTransport) Connect() error {
	f.ConnectCalls++
	if f.Connected {
		return nil
	}
	if err := next(&f.ConnectScript, f.ConnectError); err != nil {
		return err
	}
	f.Connected = true
	return nil
}

// Ping fails when disconnected or when an error is scripted.
func (f *FakeTransport) Ping() error {
	f.PingCalls++
	if !f.Connected {
		return ErrNotConnected
	}
	if err := next(&f.PingScript, f.PingError); err != nil {
		f.Connected = false
		return err
	}
	return nil
}

// Publish records the message unless disconnected or an error is scripted.
func (f *FakeTransport) Publish(topic string, payload []byte) error {
	f.PublishCalls++
	if !f.Connected {
		return ErrNotConnected
	}
	if err := next(&f.PublishScript, f.PublishError); err != nil {
		f.Connected = false
		return err
	}
	f.Messages = append(f.Messages, Message{Topic: topic, Payload: payload})
	return nil
}

// Disconnect drops the session.
func (f *FakeTransport) Disconnect() {
	f.DisconnectCalls++
	f.Connected = false
}

// OnTopic returns the messages published to topic.
func (f *FakeTransport) OnTopic(topic string) []Message {
	var out []Message
	for _, m := range f.Messages {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}

func next(script *[]error, fallback error) error {
	if len(*script) == 0 {
		return fallback
	}
	err := (*script)[0]
	*script = (*script)[1:]
	return err
}
