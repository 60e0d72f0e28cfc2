package model

// Note 成员备注 — 对应 notes
type Note struct {
	NoteID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"note_id"`
	MemberID string `gorm:"type:uuid;not null;index"                       json:"member_id"`
	OwnerID  string `gorm:"type:uuid;not null"                             json:"owner_id"`
	AuthorID string `gorm:"type:uuid;not null"                             json:"author_id"`
	Content  string `gorm:"type:text;not null"                             json:"content"`
	BaseModel

	Author *User `gorm:"foreignKey:AuthorID;references:UserID" json:"author,omitempty"`
}

// TableName 指定表名
func (Note) TableName() string { return "notes" }
