package model

import (
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// Rank 会员等级，数值越大等级越高
type Rank int

const (
	RankNormal   Rank = 0 // 普通会员
	RankVIP      Rank = 1 // VIP会员
	RankTier1    Rank = 2 // 一星代理
	RankTier2    Rank = 3 // 二星代理
	RankTier3    Rank = 4 // 三星代理
	RankDirector Rank = 5 // 董事
)

// String 返回等级名称
func (r Rank) String() string {
	switch r {
	case RankNormal:
		return "普通会员"
	case RankVIP:
		return "VIP会员"
	case RankTier1:
		return "一星代理"
	case RankTier2:
		return "二星代理"
	case RankTier3:
		return "三星代理"
	case RankDirector:
		return "董事"
	default:
		return "未知等级"
	}
}

// 会员状态
const (
	MemberStatusInactive  = 0 // 未激活
	MemberStatusActive    = 1 // 正常
	MemberStatusSuspended = 2 // 封禁
)

// Member 会员模型
type Member struct {
	ID         int64          `db:"id" json:"id"`
	Nickname   string         `db:"nickname" json:"nickname"`
	Rank       Rank           `db:"rank" json:"rank"`
	Status     int            `db:"status" json:"status"` // 0: 未激活, 1: 正常, 2: 封禁
	ReferrerID *int64         `db:"referrer_id" json:"referrer_id,omitempty"`
	ParentID   *int64         `db:"parent_id" json:"parent_id,omitempty"`
	Path       sql.NullString `db:"path" json:"path,omitempty"` // 物化路径，祖先ID从根到父级，如 1/5/9
	Token      sql.NullString `db:"token" json:"-"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// IsActive 会员是否处于正常状态
func (m *Member) IsActive() bool {
	return m.Status == MemberStatusActive
}

// PathIDs 解析物化路径，返回从根到父级的祖先ID列表；
// 路径为空或解析失败时返回nil
func (m *Member) PathIDs() []int64 {
	if !m.Path.Valid || m.Path.String == "" {
		return nil
	}
	parts := strings.Split(strings.Trim(m.Path.String, "/"), "/")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil
		}
		ids = append(ids, id)
	}
	return ids
}
