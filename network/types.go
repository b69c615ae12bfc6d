package network

// SessionInfo is the body of POST /api/session/new.
type SessionInfo struct {
	OK        bool     `json:"ok"`
	SessionID string   `json:"session_id"`
	IPs       []string `json:"ips"`
	Error     string   `json:"error,omitempty"`
}

// FileDescriptor is one entry of a session's file list.
type FileDescriptor struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	Downloaded bool   `json:"downloaded,omitempty"`
}

type listResponse struct {
	OK    bool             `json:"ok"`
	Files []FileDescriptor `json:"files"`
	Error string           `json:"error,omitempty"`
}

type uploadResponse struct {
	OK       bool             `json:"ok"`
	Uploaded []FileDescriptor `json:"uploaded"`
	Error    string           `json:"error,omitempty"`
}

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// UploadFile is a local file queued for a multipart upload. Name is the
// filename sent to the server; Path is opened only while streaming.
type UploadFile struct {
	Name string
	Path string
	Size int64
}
