package websocket

// EntityAction представляет тип действия с сущностью
type EntityAction string

// Константы для действий с сущностями
const (
	EntityActionCreated EntityAction = "created"
	EntityActionUpdated EntityAction = "updated"
)

// Типы сущностей, о которых публикуются события
const (
	EntityTypeBook   = "book"
	EntityTypeAuthor = "author"
)

// EntityEvent is what subscribers of /events receive
type EntityEvent struct {
	// Action определяет тип события: created, updated
	Action EntityAction `json:"action"`

	// ID сущности, к которой относится событие
	EntityID string `json:"entity_id"`

	// Type определяет тип сущности: book, author
	Type string `json:"type"`

	// Metadata содержит дополнительные данные о событии
	Metadata map[string]any `json:"metadata,omitempty"`
}
