package launch

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type ResourceVisibility string

type ResourceType string

const (
	// VisibilityApplication scopes a staged resource to the application
	// that provisioned it; resources are never shared across applications.
	VisibilityApplication ResourceVisibility = "APPLICATION"

	TypeFile ResourceType = "FILE"
)

// ResourceDescriptor declares a staged artifact to the resource manager so
// it is localized into the container before the main process starts. Size
// and modification time come from a stat of the remote copy, not the local
// source.
type ResourceDescriptor struct {
	Location     string
	SizeBytes    int64
	LastModified time.Time
	Visibility   ResourceVisibility
	Type         ResourceType
}

func (d ResourceDescriptor) Validate() error {
	if strings.TrimSpace(d.Location) == "" {
		return errors.New("resource location is required")
	}
	if d.SizeBytes < 0 {
		return errors.New("resource size must be non-negative")
	}
	return nil
}

// Spec is the assembled container launch request. It is immutable after
// Build: the builder copies every map, slice and blob it was handed.
type Spec struct {
	MemoryBudgetMB int
	HeapLimitMB    int
	Environment    map[string]string
	Resources      []ResourceDescriptor
	Credentials    []byte
}

type Builder struct {
	memoryBudgetMB int
	heapLimitMB    int
	environment    map[string]string
	resources      []ResourceDescriptor
	credentials    []byte
}

func NewBuilder(memoryBudgetMB int, heapLimitMB int) *Builder {
	return &Builder{
		memoryBudgetMB: memoryBudgetMB,
		heapLimitMB:    heapLimitMB,
	}
}

func (b *Builder) WithEnvironment(env map[string]string) *Builder {
	b.environment = env
	return b
}

func (b *Builder) AddResource(desc ResourceDescriptor) *Builder {
	b.resources = append(b.resources, desc)
	return b
}

func (b *Builder) WithCredentials(blob []byte) *Builder {
	b.credentials = blob
	return b
}

func (b *Builder) Build() (Spec, error) {
	if b.memoryBudgetMB <= 0 {
		return Spec{}, errors.New("memory budget must be positive")
	}
	if b.heapLimitMB <= 0 {
		return Spec{}, errors.New("heap limit must be positive")
	}
	if b.heapLimitMB > b.memoryBudgetMB {
		return Spec{}, fmt.Errorf("heap limit %dMB exceeds memory budget %dMB", b.heapLimitMB, b.memoryBudgetMB)
	}
	for _, desc := range b.resources {
		if err := desc.Validate(); err != nil {
			return Spec{}, err
		}
	}

	env := make(map[string]string, len(b.environment))
	for k, v := range b.environment {
		env[k] = v
	}
	resources := make([]ResourceDescriptor, len(b.resources))
	copy(resources, b.resources)
	credentials := make([]byte, len(b.credentials))
	copy(credentials, b.credentials)

	return Spec{
		MemoryBudgetMB: b.memoryBudgetMB,
		HeapLimitMB:    b.heapLimitMB,
		Environment:    env,
		Resources:      resources,
		Credentials:    credentials,
	}, nil
}
