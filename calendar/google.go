package calendar

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

const (
	// The period of time before the token expiration when we should refresh it
	expirationDelta = 1 * time.Minute

	calendarReadOnlyScope = "https://www.googleapis.com/auth/calendar.readonly"
	eventStatusCancelled  = "cancelled"
	maxResultsPerPage     = 250
)

type GoogleConfig struct {
	CredentialsFile string `envconfig:"THERAPYHUB_GOOGLE_CREDENTIALS_FILE"`
	ClientEmail     string `envconfig:"THERAPYHUB_GOOGLE_CLIENT_EMAIL"`
	PrivateKeyPem   string `envconfig:"THERAPYHUB_GOOGLE_PRIVATE_KEY"`
	PrivateKeyId    string `envconfig:"THERAPYHUB_GOOGLE_PRIVATE_KEY_ID"`
	Impersonate     string `envconfig:"THERAPYHUB_GOOGLE_IMPERSONATE"`
	TokenURL        string `envconfig:"THERAPYHUB_GOOGLE_TOKEN_URL" default:"https://oauth2.googleapis.com/token"`
	CalendarURL     string `envconfig:"THERAPYHUB_GOOGLE_CALENDAR_URL" default:"https://www.googleapis.com/calendar/v3"`
}

type serviceAccountKey struct {
	ClientEmail  string `json:"client_email"`
	PrivateKey   string `json:"private_key"`
	PrivateKeyId string `json:"private_key_id"`
	TokenURI     string `json:"token_uri"`
}

// GoogleProvider reads events from the Google Calendar v3 REST API using a
// service account, optionally impersonating a staff mailbox.
type GoogleProvider struct {
	config      GoogleConfig
	restyClient *resty.Client
	privateKey  *rsa.PrivateKey
	limiter     ratelimit.Limiter
	location    *time.Location
	logger      *zap.SugaredLogger

	token *Token
	mu    sync.Mutex
}

var _ Provider = &GoogleProvider{}

func NewGoogleProvider(config GoogleConfig, moduleConfig ModuleConfig, location *time.Location, logger *zap.SugaredLogger) (*GoogleProvider, error) {
	if config.CredentialsFile != "" {
		if err := loadServiceAccountKey(&config); err != nil {
			return nil, err
		}
	}
	if config.ClientEmail == "" || config.PrivateKeyPem == "" {
		return nil, errors.New("google calendar provider requires a service account email and private key")
	}

	// Keys passed through the environment usually have escaped new lines
	pem := strings.ReplaceAll(config.PrivateKeyPem, `\n`, "\n")
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pem))
	if err != nil {
		return nil, fmt.Errorf("unable to parse google private key: %w", err)
	}

	limiter := ratelimit.NewUnlimited()
	if moduleConfig.RequestsPerSecond > 0 {
		limiter = ratelimit.New(moduleConfig.RequestsPerSecond)
	}

	return &GoogleProvider{
		config:      config,
		restyClient: resty.New().SetTimeout(moduleConfig.Timeout),
		privateKey:  privateKey,
		limiter:     limiter,
		location:    location,
		logger:      logger,
	}, nil
}

func loadServiceAccountKey(config *GoogleConfig) error {
	body, err := os.ReadFile(config.CredentialsFile)
	if err != nil {
		return fmt.Errorf("unable to read google credentials file: %w", err)
	}
	key := serviceAccountKey{}
	if err := json.Unmarshal(body, &key); err != nil {
		return fmt.Errorf("unable to parse google credentials file: %w", err)
	}

	config.ClientEmail = key.ClientEmail
	config.PrivateKeyPem = key.PrivateKey
	config.PrivateKeyId = key.PrivateKeyId
	if key.TokenURI != "" {
		config.TokenURL = key.TokenURI
	}
	return nil
}

func (g *GoogleProvider) Authenticate(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.obtainFreshToken(ctx)
}

func (g *GoogleProvider) ListEvents(ctx context.Context, calendarId string, window Window) ([]Event, error) {
	var events []Event
	pageToken := ""
	for {
		page, err := g.listEventsPage(ctx, calendarId, window, pageToken)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if item.Status == eventStatusCancelled {
				g.logger.Debugw("ignoring cancelled event", "calendarId", calendarId, "eventId", item.Id)
				continue
			}
			events = append(events, g.toEvent(calendarId, item))
		}
		if page.NextPageToken == "" {
			return events, nil
		}
		pageToken = page.NextPageToken
	}
}

func (g *GoogleProvider) listEventsPage(ctx context.Context, calendarId string, window Window, pageToken string) (*googleEventList, error) {
	req, err := g.getRequestWithFreshToken(ctx)
	if err != nil {
		return nil, err
	}

	query := map[string]string{
		"timeMin":      window.Start.Format(time.RFC3339),
		"timeMax":      window.End.Format(time.RFC3339),
		"singleEvents": "true",
		"orderBy":      "startTime",
		"maxResults":   strconv.Itoa(maxResultsPerPage),
	}
	if pageToken != "" {
		query["pageToken"] = pageToken
	}

	g.limiter.Take()

	page := &googleEventList{}
	httpErr := &ErrorResponse{}
	resp, err := req.
		SetPathParam("calendarId", calendarId).
		SetQueryParams(query).
		SetResult(page).
		SetError(httpErr).
		Get(g.config.CalendarURL + "/calendars/{calendarId}/events")

	if err != nil {
		return nil, fmt.Errorf("error listing events of calendar %v: %w", calendarId, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("error listing events of calendar %v: %w", calendarId, httpErr)
	}
	return page, nil
}

func (g *GoogleProvider) toEvent(calendarId string, item googleEvent) Event {
	event := Event{
		ExternalId:  item.Id,
		CalendarId:  calendarId,
		Title:       item.Summary,
		Description: item.Description,
		Location:    item.Location,
	}

	start, startAllDay, err := item.Start.resolve(g.location)
	if err != nil {
		g.logger.Warnw("unable to parse event start", "calendarId", calendarId, "eventId", item.Id, zap.Error(err))
	}
	end, endAllDay, err := item.End.resolve(g.location)
	if err != nil {
		g.logger.Warnw("unable to parse event end", "calendarId", calendarId, "eventId", item.Id, zap.Error(err))
	}

	event.StartAt = start
	event.EndAt = end
	event.AllDay = startAllDay && endAllDay
	return event
}

func (g *GoogleProvider) getRequest(ctx context.Context) *resty.Request {
	return g.restyClient.R().SetContext(ctx)
}

func (g *GoogleProvider) getRequestWithFreshToken(ctx context.Context) (*resty.Request, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.shouldRefreshToken() {
		if err := g.obtainFreshToken(ctx); err != nil {
			return nil, err
		}
	}
	return g.getRequest(ctx).SetAuthToken(g.token.AccessToken), nil
}

func (g *GoogleProvider) shouldRefreshToken() bool {
	return g.token == nil || g.token.IsExpired(expirationDelta)
}

// obtainFreshToken must be called with the mutex held
func (g *GoogleProvider) obtainFreshToken(ctx context.Context) error {
	assertion, err := g.getSignedAssertion()
	if err != nil {
		return err
	}

	token := &Token{}
	authErr := &AuthError{}
	resp, err := g.getRequest(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetFormData(map[string]string{
			"grant_type": "urn:ietf:params:oauth:grant-type:jwt-bearer",
			"assertion":  assertion,
		}).
		SetResult(token).
		SetError(authErr).
		Post(g.config.TokenURL)

	if err != nil {
		return fmt.Errorf("error obtaining token: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("error obtaining token: %w", authErr)
	}
	if token.AccessToken == "" {
		return errors.New("error obtaining token: empty access token")
	}

	token.SetExpirationTime()
	g.token = token
	return nil
}

func (g *GoogleProvider) getSignedAssertion() (string, error) {
	now := time.Now()
	nonce, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"iss":   g.config.ClientEmail,
		"scope": calendarReadOnlyScope,
		"aud":   g.config.TokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
		"jti":   nonce.String(),
	}
	if g.config.Impersonate != "" {
		claims["sub"] = g.config.Impersonate
	}

	assertion := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if g.config.PrivateKeyId != "" {
		assertion.Header["kid"] = g.config.PrivateKeyId
	}

	return assertion.SignedString(g.privateKey)
}

type googleEventList struct {
	Items         []googleEvent `json:"items"`
	NextPageToken string        `json:"nextPageToken"`
}

type googleEvent struct {
	Id          string          `json:"id"`
	Status      string          `json:"status"`
	Summary     string          `json:"summary"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	Start       googleEventTime `json:"start"`
	End         googleEventTime `json:"end"`
}

type googleEventTime struct {
	Date     string `json:"date"`
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// resolve returns the instant and whether the value was date-only. Date-only
// values are midnight of that date in the given location.
func (t googleEventTime) resolve(location *time.Location) (time.Time, bool, error) {
	if t.DateTime != "" {
		parsed, err := time.Parse(time.RFC3339, t.DateTime)
		return parsed, false, err
	}
	if t.Date != "" {
		parsed, err := time.ParseInLocation(dateLayout, t.Date, location)
		return parsed, true, err
	}
	return time.Time{}, false, nil
}

type Token struct {
	AccessToken    string `json:"access_token"`
	ExpiresIn      int    `json:"expires_in"`
	TokenType      string `json:"token_type"`
	ExpirationTime time.Time
}

func (t *Token) SetExpirationTime() {
	t.ExpirationTime = time.Now().Add(time.Duration(t.ExpiresIn) * time.Second)
}

func (t *Token) IsExpired(delta time.Duration) bool {
	return time.Now().After(t.ExpirationTime.Add(-delta))
}

type AuthError struct {
	Err              string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (a AuthError) Error() string {
	return fmt.Sprintf("%v: %v", a.Err, a.ErrorDescription)
}

type ErrorResponse struct {
	Detail struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e ErrorResponse) Error() string {
	return fmt.Sprintf("%v: %v", e.Detail.Code, e.Detail.Message)
}
