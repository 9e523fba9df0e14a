package netutil

import (
	"bytes"
	"io"

	"github.com/vmihailenco/msgpack"
)

// MessagePackMsgPacker packs and unpacks message in MessagePack format
type MessagePackMsgPacker struct{}

// PackMsg packs message to bytes in MessagePack format
func (mp MessagePackMsgPacker) PackMsg(msg interface{}, buf []byte) ([]byte, error) {
	buffer := bytes.NewBuffer(buf)

	encoder := msgpack.NewEncoder(buffer)
	err := encoder.Encode(msg)
	if err != nil {
		return buf, err
	}
	buf = buffer.Bytes()
	return buf, nil
}

// UnpackMsg unpacksbytes in MessagePack format to message
func (mp MessagePackMsgPacker) UnpackMsg(data []byte, msg interface{}) error {
	err := msgpack.Unmarshal(data, msg)
	return err
}

// NewStreamWriter returns a writer of consecutive MessagePack values
func (mp MessagePackMsgPacker) NewStreamWriter(w io.Writer) MsgWriter {
	return msgpackStreamWriter{msgpack.NewEncoder(w)}
}

// NewStreamReader returns a reader of consecutive MessagePack values
func (mp MessagePackMsgPacker) NewStreamReader(r io.Reader) MsgReader {
	return msgpackStreamReader{msgpack.NewDecoder(r)}
}

type msgpackStreamWriter struct {
	enc *msgpack.Encoder
}

func (w msgpackStreamWriter) WriteMsg(msg interface{}) error {
	return w.enc.Encode(msg)
}

type msgpackStreamReader struct {
	dec *msgpack.Decoder
}

func (r msgpackStreamReader) ReadMsg(msg interface{}) error {
	return r.dec.Decode(msg)
}
