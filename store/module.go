package store

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Pablotechedu/proyecto-final-sub000/patients"
	"github.com/Pablotechedu/proyecto-final-sub000/sessions"
	"github.com/Pablotechedu/proyecto-final-sub000/therapists"
)

const (
	BackendFirestore = "firestore"
	BackendMongo     = "mongo"

	PatientsCollection = "patients"
	UsersCollection    = "users"
	SessionsCollection = "sessions"
)

var Module = fx.Provide(
	NewConfig,
	NewBackend,
	func(b Backend) patients.Store { return b },
	func(b Backend) therapists.Store { return b },
	func(b Backend) sessions.Store { return b },
)

type Config struct {
	Backend                  string        `envconfig:"THERAPYHUB_STORE_BACKEND" default:"firestore"`
	FirestoreProjectId       string        `envconfig:"THERAPYHUB_FIRESTORE_PROJECT_ID"`
	FirestoreCredentialsFile string        `envconfig:"THERAPYHUB_FIRESTORE_CREDENTIALS_FILE"`
	MongoURI                 string        `envconfig:"THERAPYHUB_MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase            string        `envconfig:"THERAPYHUB_MONGO_DATABASE" default:"therapyhub"`
	ConnectAttempts          uint          `envconfig:"THERAPYHUB_STORE_CONNECT_ATTEMPTS" default:"5"`
	ConnectDelay             time.Duration `envconfig:"THERAPYHUB_STORE_CONNECT_DELAY" default:"2s"`
}

func NewConfig() (Config, error) {
	config := Config{}
	err := envconfig.Process("", &config)
	return config, err
}

// Backend serves the patients, users and sessions collections from one database
type Backend interface {
	patients.Store
	therapists.Store
	sessions.Store
}

type Params struct {
	fx.In

	Config    Config
	Lifecycle fx.Lifecycle
	Logger    *zap.SugaredLogger
}

func NewBackend(p Params) (Backend, error) {
	switch p.Config.Backend {
	case BackendFirestore:
		return NewFirestoreBackend(p)
	case BackendMongo:
		return NewMongoBackend(p)
	default:
		return nil, fmt.Errorf("unsupported store backend %q", p.Config.Backend)
	}
}
