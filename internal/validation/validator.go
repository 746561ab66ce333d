package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"excentrica/internal/auth"
	"excentrica/internal/logger"
	"excentrica/internal/models"
)

// SmokeValidator - смоук-проверка работающего API
type SmokeValidator struct {
	baseURL    string
	client     *http.Client
	userToken  string
	staffToken string
}

// Target - события, на которых выполняется проверка
type Target struct {
	EventID  int64
	SorteoID int64
}

// NewSmokeValidator выпускает токены пользователя и сотрудника тем же секретом, что и API
func NewSmokeValidator(baseURL string, authenticator *auth.Authenticator, userID int64) (*SmokeValidator, error) {
	userToken, err := authenticator.Issue(auth.Principal{UserID: userID, Role: auth.RoleUser})
	if err != nil {
		return nil, err
	}
	staffToken, err := authenticator.Issue(auth.Principal{UserID: 1, Role: auth.RoleAdmin})
	if err != nil {
		return nil, err
	}

	return &SmokeValidator{
		baseURL:    baseURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		userToken:  userToken,
		staffToken: staffToken,
	}, nil
}

// ValidateAll проверяет все группы endpoints
func (v *SmokeValidator) ValidateAll(ctx context.Context, target Target) error {
	log := logger.WithContext(ctx)
	log.Info("Начинаю валидацию API", "base_url", v.baseURL)

	if err := v.validateAuth(ctx); err != nil {
		return fmt.Errorf("auth validation failed: %w", err)
	}

	if err := v.validateRegistrations(ctx, target.EventID); err != nil {
		return fmt.Errorf("registrations validation failed: %w", err)
	}

	if target.SorteoID > 0 {
		if err := v.validateSorteo(ctx, target.SorteoID); err != nil {
			return fmt.Errorf("sorteo validation failed: %w", err)
		}
	}

	log.Info("Все endpoints прошли валидацию успешно")
	return nil
}

func (v *SmokeValidator) validateAuth(ctx context.Context) error {
	if err := v.expect(ctx, http.MethodGet, "/api/user/events", "", nil, http.StatusUnauthorized, nil); err != nil {
		return err
	}
	if err := v.expect(ctx, http.MethodGet, "/api/admin/event-registrations", v.userToken, nil, http.StatusForbidden, nil); err != nil {
		return err
	}
	return v.expect(ctx, http.MethodGet, "/health", "", nil, http.StatusOK, nil)
}

func (v *SmokeValidator) validateRegistrations(ctx context.Context, eventID int64) error {
	registerPath := fmt.Sprintf("/api/events/%d/register", eventID)

	var created models.RegisterResponse
	if err := v.expect(ctx, http.MethodPost, registerPath, v.userToken, nil, http.StatusCreated, &created); err != nil {
		return err
	}
	if created.ID == 0 || created.RegistrationCode == "" || created.Status != models.RegistrationPending {
		return fmt.Errorf("POST %s: unexpected response %+v", registerPath, created)
	}

	if err := v.expect(ctx, http.MethodPost, registerPath, v.userToken, nil, http.StatusConflict, nil); err != nil {
		return err
	}

	var mine models.MyRegistrationsResponse
	if err := v.expect(ctx, http.MethodGet, "/api/user/events", v.userToken, nil, http.StatusOK, &mine); err != nil {
		return err
	}
	if !containsRegistration(mine.Items, created.ID) {
		return fmt.Errorf("GET /api/user/events: registration %d missing", created.ID)
	}

	verifyPath := "/api/admin/event-registrations/verify/" + created.RegistrationCode
	var verified models.VerifyCodeResponse
	if err := v.expect(ctx, http.MethodGet, verifyPath, v.staffToken, nil, http.StatusOK, &verified); err != nil {
		return err
	}
	if !verified.Valid || verified.CanEnter {
		return fmt.Errorf("GET %s: expected valid pending registration, got %+v", verifyPath, verified)
	}

	statusPath := fmt.Sprintf("/api/admin/event-registrations/%d", created.ID)
	approve := models.UpdateRegistrationStatusRequest{Status: string(models.RegistrationConfirmed)}
	if err := v.expect(ctx, http.MethodPut, statusPath, v.staffToken, approve, http.StatusOK, nil); err != nil {
		return err
	}

	verified = models.VerifyCodeResponse{}
	if err := v.expect(ctx, http.MethodGet, verifyPath, v.staffToken, nil, http.StatusOK, &verified); err != nil {
		return err
	}
	if !verified.CanEnter {
		return fmt.Errorf("GET %s: confirmed registration cannot enter", verifyPath)
	}

	var unknown models.VerifyCodeResponse
	if err := v.expect(ctx, http.MethodGet, "/api/admin/event-registrations/verify/EVT-0-NOPE", v.staffToken, nil, http.StatusOK, &unknown); err != nil {
		return err
	}
	if unknown.Valid {
		return fmt.Errorf("verify: unknown code reported as valid")
	}

	if err := v.expect(ctx, http.MethodDelete, registerPath, v.userToken, nil, http.StatusOK, nil); err != nil {
		return err
	}
	return v.expect(ctx, http.MethodPost, registerPath, v.userToken, nil, http.StatusCreated, nil)
}

func (v *SmokeValidator) validateSorteo(ctx context.Context, sorteoID int64) error {
	joinPath := fmt.Sprintf("/api/sorteos/%d/participate", sorteoID)
	join := models.JoinSorteoRequest{Name: "Validador", Email: "validador@example.com"}
	if err := v.expect(ctx, http.MethodPost, joinPath, v.userToken, join, http.StatusCreated, nil); err != nil {
		return err
	}

	drawPath := fmt.Sprintf("/api/admin/sorteos/%d/select-winners", sorteoID)
	var drawn models.SelectWinnersResponse
	if err := v.expect(ctx, http.MethodPost, drawPath, v.staffToken, nil, http.StatusOK, &drawn); err != nil {
		return err
	}
	if drawn.WinnersSelected == 0 || len(drawn.Winners) != drawn.WinnersSelected {
		return fmt.Errorf("POST %s: unexpected response %+v", drawPath, drawn)
	}

	if err := v.expect(ctx, http.MethodPost, drawPath, v.staffToken, nil, http.StatusConflict, nil); err != nil {
		return err
	}

	claimPath := fmt.Sprintf("/api/admin/sorteos/participants/%d/claim", drawn.Winners[0].ID)
	if err := v.expect(ctx, http.MethodPut, claimPath, v.staffToken, nil, http.StatusOK, nil); err != nil {
		return err
	}
	if err := v.expect(ctx, http.MethodPut, claimPath, v.staffToken, nil, http.StatusConflict, nil); err != nil {
		return err
	}

	disqualifyPath := fmt.Sprintf("/api/admin/sorteos/participants/%d/disqualify", drawn.Winners[0].ID)
	return v.expect(ctx, http.MethodPut, disqualifyPath, v.staffToken, nil, http.StatusConflict, nil)
}

func containsRegistration(items []models.RegistrationDetail, id int64) bool {
	for _, item := range items {
		if item.ID == id {
			return true
		}
	}
	return false
}

// expect выполняет запрос и сверяет статус; out заполняется из тела ответа
func (v *SmokeValidator) expect(ctx context.Context, method, path, token string, body interface{}, want int, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: failed to marshal body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, v.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s: expected %d, got %d: %s", method, path, want, resp.StatusCode, payload)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
		}
	}

	logger.WithContext(ctx).Debug("Endpoint valid", "method", method, "path", path, "status", resp.StatusCode)
	return nil
}
