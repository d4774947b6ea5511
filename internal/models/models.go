package models

import "time"

type NodeType int16

const (
	NodeTypeDir  NodeType = 0
	NodeTypeFile NodeType = 1
)

func (t NodeType) String() string {
	switch t {
	case NodeTypeDir:
		return "dir"
	case NodeTypeFile:
		return "file"
	}
	return "unknown"
}

// NodeMeta is the external view of an inode, returned by stat-like operations.
type NodeMeta struct {
	Ino       int64    `json:"ino"`
	ParentIno int64    `json:"parent_ino"`
	Type      NodeType `json:"type"`
	Mode      uint32   `json:"mode"`
	Size      int64    `json:"size"`
}

type Dirent struct {
	Name string   `json:"name"`
	Ino  int64    `json:"ino"`
	Type NodeType `json:"type"`
}

// Metadata is the attribute block shared by both inode kinds.
// Mode is informational only and never enforced.
type Metadata struct {
	CreatedAt  time.Time
	ModifiedAt time.Time
	Size       int64
	Mode       uint32
}
