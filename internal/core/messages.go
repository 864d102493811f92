package core

// Frame is a raw encoded payload delivered on a connection.
type Frame []byte

// Message type tags shared by both directions of the wire protocol.
const (
	TypeCallRequest  = "call_request"
	TypeIncomingCall = "incoming_call"
	TypeCallAccepted = "call_accepted"
	TypeCallEnded    = "call_ended"
	TypeAudioChunk   = "audio_chunk"
	TypeEndOfStream  = "end_of_stream"
)

// SignalMessage carries call lifecycle events between two peers.
type SignalMessage struct {
	Type        string `json:"type"`
	CallerID    string `json:"caller_id,omitempty"`
	RecipientID string `json:"recipient_id,omitempty"`
}

// AudioChunkMessage is one synthesized frame on its way to the recipient.
// Data is base64 so the payload survives a text-only channel.
type AudioChunkMessage struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
}

// AudioFrame is the inbound microphone payload from a client.
// Audio is base64 PCM float32 little-endian samples.
type AudioFrame struct {
	Audio    string `json:"audio"`
	Terminal bool   `json:"terminal"`
}
