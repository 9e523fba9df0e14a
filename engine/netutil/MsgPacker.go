package netutil

import "io"

var (
	// MSG_PACKER is used for packing and unpacking op lists and recordings
	MSG_PACKER MsgPacker = MessagePackMsgPacker{}
)

// MsgPacker is used to packs and unpacks messages
type MsgPacker interface {
	PackMsg(msg interface{}, buf []byte) ([]byte, error)
	UnpackMsg(data []byte, msg interface{}) error
	// NewStreamWriter writes consecutive messages to w
	NewStreamWriter(w io.Writer) MsgWriter
	// NewStreamReader reads consecutive messages from r; io.EOF marks the end of stream
	NewStreamReader(r io.Reader) MsgReader
}

// MsgWriter writes messages to a stream
type MsgWriter interface {
	WriteMsg(msg interface{}) error
}

// MsgReader reads messages from a stream
type MsgReader interface {
	ReadMsg(msg interface{}) error
}
