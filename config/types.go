package config

type Config struct {
	Server   Server
	Database Database
}

type Server struct {
	Addr string `mapstructure:"addr"`
	// AdminPassword gates the mutating catalog endpoints. An empty value
	// leaves them open, which is only sensible in development.
	AdminPassword string `mapstructure:"admin_password"`
}

type Database struct {
	Type      string `mapstructure:"type"`
	Mongo     Mongo
	Firestore Firestore
	SQLite    SQLite
}

type Mongo struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type Firestore struct {
	ProjectID          string `mapstructure:"project_id"`
	CredentialsFile    string `mapstructure:"credentials_file"`
	CourseCollectionID string `mapstructure:"course_collection_id"`
}

type SQLite struct {
	ConnectionString string `mapstructure:"connection_string"`
}
