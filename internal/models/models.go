package models

// ErrorResponse - тело ответа при ошибке
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// OKResponse - пустой успешный ответ
type OKResponse struct {
	Success bool `json:"success"`
}

// RegisterResponse - ответ на регистрацию к событию
type RegisterResponse struct {
	Success          bool               `json:"success"`
	ID               int64              `json:"id"`
	RegistrationCode string             `json:"registration_code"`
	Status           RegistrationStatus `json:"status"`
}

// MyRegistrationsResponse - регистрации текущего пользователя
type MyRegistrationsResponse struct {
	Success bool                 `json:"success"`
	Items   []RegistrationDetail `json:"items"`
}

// RegistrationFilter - фильтры для списка регистраций в админке
type RegistrationFilter struct {
	EventID  *int64
	UserID   *int64
	Status   *RegistrationStatus
	Page     int
	PageSize int
}

// Offset returns the row offset of the requested page
func (f RegistrationFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// ListRegistrationsResponse - страница регистраций
type ListRegistrationsResponse struct {
	Success  bool                 `json:"success"`
	Items    []RegistrationDetail `json:"items"`
	Total    int                  `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
}

// UpdateRegistrationStatusRequest - смена статуса регистрации сотрудником
type UpdateRegistrationStatusRequest struct {
	Status string  `json:"status" binding:"required"`
	Notes  *string `json:"notes"`
}

// VerifyCodeResponse - результат проверки кода на входе
type VerifyCodeResponse struct {
	Success      bool                `json:"success"`
	Valid        bool                `json:"valid"`
	Registration *RegistrationDetail `json:"registration,omitempty"`
	CanEnter     bool                `json:"can_enter"`
}

// RegistrationStats - счетчики регистраций события по статусам
type RegistrationStats struct {
	EventID         int64                      `json:"event_id"`
	ByStatus        map[RegistrationStatus]int `json:"by_status"`
	Active          int                        `json:"active"`
	MaxParticipants *int                       `json:"max_participants"`
	Remaining       *int                       `json:"remaining"`
}

// JoinSorteoRequest - заявка на участие в розыгрыше
type JoinSorteoRequest struct {
	Name  string  `json:"name" binding:"required"`
	Email string  `json:"email" binding:"required,email"`
	Phone *string `json:"phone"`
}

// JoinSorteoResponse - созданный участник
type JoinSorteoResponse struct {
	Success     bool              `json:"success"`
	Participant SorteoParticipant `json:"participant"`
}

// ChangeSorteoStatusRequest - смена статуса розыгрыша
type ChangeSorteoStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ParticipantFilter - фильтры списка участников
type ParticipantFilter struct {
	Status      *ParticipantStatus
	WinnersOnly bool
}

// ListParticipantsResponse - участники розыгрыша
type ListParticipantsResponse struct {
	Success bool                `json:"success"`
	Items   []SorteoParticipant `json:"items"`
}

// SelectWinnersResponse - результат розыгрыша
type SelectWinnersResponse struct {
	Success         bool                `json:"success"`
	WinnersSelected int                 `json:"winners_selected"`
	Winners         []SorteoParticipant `json:"winners"`
}

// DisqualifyRequest - дисквалификация участника
type DisqualifyRequest struct {
	Notes *string `json:"notes"`
}

// ActivityFilter - фильтры журнала активности
type ActivityFilter struct {
	Query      string
	EntityType string
	ActorID    *int64
	Page       int
	PageSize   int
}

// ListActivityResponse - страница журнала активности
type ListActivityResponse struct {
	Success bool          `json:"success"`
	Items   []ActivityLog `json:"items"`
	Source  string        `json:"source"`
}
