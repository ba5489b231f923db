package model

// RelationshipType 团队关系类型
type RelationshipType string

const (
	RelationshipDirect   RelationshipType = "direct"   // 直接上下级
	RelationshipIndirect RelationshipType = "indirect" // 间接上下级
	RelationshipNone     RelationshipType = "none"     // 无关系
)

// RelationshipResult 团队关系校验结果
type RelationshipResult struct {
	IsValid  bool             `json:"is_valid"`
	Distance int              `json:"distance"` // 候选上级到会员的跳数，含会员本身
	Path     []int64          `json:"path"`     // 两端之间的中间节点，不含两端
	Type     RelationshipType `json:"type"`
	Message  string           `json:"message,omitempty"`
}

// ChainMember 上级链路中的一个节点
type ChainMember struct {
	Member   *Member `json:"member"`
	Distance int     `json:"distance"` // 距起点的真实跳数，1为直接上级
}

// UplineSearchResult 向上查找满足等级条件的上级的结果
type UplineSearchResult struct {
	Found      bool    `json:"found"`
	Member     *Member `json:"member,omitempty"`
	SearchPath []int64 `json:"search_path"` // 查找经过的会员ID，起点在首位
	Message    string  `json:"message,omitempty"`
}

// SupplyPath 最优供货路径
type SupplyPath struct {
	IsValid bool          `json:"is_valid"`
	Nodes   []ChainMember `json:"nodes"` // 等级严格高于起点会员的上级
	Message string        `json:"message,omitempty"`
}
