package rtc

import (
	"errors"

	"github.com/vmihailenco/msgpack/v5"
)

const helloKind = "hello"

var ErrNotHello = errors.New("not a hello message")

// Hello is the first message each side sends over the control channel.
type Hello struct {
	Kind string `msgpack:"kind"`
	Name string `msgpack:"name"`
	Role string `msgpack:"role"`
}

func EncodeHello(h Hello) ([]byte, error) {
	h.Kind = helloKind
	return msgpack.Marshal(h)
}

func DecodeHello(data []byte) (Hello, error) {
	var h Hello
	if err := msgpack.Unmarshal(data, &h); err != nil {
		return Hello{}, err
	}
	if h.Kind != helloKind {
		return Hello{}, ErrNotHello
	}
	return h, nil
}
