package conversation

type ModeKind string

const (
	ModePlainChat        ModeKind = "plain_chat"
	ModeDocumentGrounded ModeKind = "document_grounded"
)

// Mode is PlainChat or DocumentGrounded on one cached document.
type Mode struct {
	Kind         ModeKind `json:"kind"`
	DocumentHash string   `json:"document_hash,omitempty"`
}

func PlainChat() Mode {
	return Mode{Kind: ModePlainChat}
}

func Grounded(hash string) Mode {
	return Mode{Kind: ModeDocumentGrounded, DocumentHash: hash}
}

func (m Mode) IsGrounded() bool {
	return m.Kind == ModeDocumentGrounded
}

func (m Mode) String() string {
	if m.IsGrounded() {
		return string(m.Kind) + "(" + m.DocumentHash + ")"
	}
	return string(m.Kind)
}
