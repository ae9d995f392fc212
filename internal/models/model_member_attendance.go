package models

import "time"

// MemberAttendance is one check-in. Rows are only ever inserted.
type MemberAttendance struct {
	ID          string    `gorm:"column:id;type:uuid;primaryKey"`
	MemberID    string    `gorm:"column:member_id;type:uuid;not null;index:idx_member_attendance_member,priority:1"`
	CheckedInAt time.Time `gorm:"column:checked_in_at;not null;index:idx_member_attendance_member,priority:2"`
	CreatedAt   time.Time
}

func (MemberAttendance) TableName() string {
	return "member_attendance"
}
