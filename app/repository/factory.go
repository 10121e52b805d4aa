package repository

import (
	"sync"

	"gorm.io/gorm"
)

// NewRepositories wires all repository implementations against one DB handle
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Organization:     NewOrganizationRepository(db),
		GoogleCredential: NewGoogleCredentialRepository(db),
		Review:           NewReviewRepository(db),
	}
}

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{db: db}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetOrganizationRepository returns the organization repository instance
func (f *Factory) GetOrganizationRepository() OrganizationRepository {
	return f.GetRepositories().Organization
}

// GetGoogleCredentialRepository returns the credential repository instance
func (f *Factory) GetGoogleCredentialRepository() GoogleCredentialRepository {
	return f.GetRepositories().GoogleCredential
}

// GetReviewRepository returns the review repository instance
func (f *Factory) GetReviewRepository() ReviewRepository {
	return f.GetRepositories().Review
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the global repository factory
func GetGlobalFactory() *Factory {
	return globalFactory
}
