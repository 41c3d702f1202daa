package workspace

import (
	"context"
	"github.com/heartmarshall/studyvault-backend/internal/domain"
	"github.com/heartmarshall/studyvault-backend/internal/storage"
	"sync"
)

var _ workspaceStore = &workspaceStoreMock{}

type workspaceStoreMock struct {
	CreateSchoolFunc        func(ctx context.Context, school domain.School) (domain.School, error)
	CreateWorkspaceFunc     func(ctx context.Context, id string, displayName string) (domain.Workspace, error)
	GetDatasetFunc          func(ctx context.Context, tenantID string, fileName string) (storage.Dataset, error)
	GetSchoolFunc           func(ctx context.Context, id string) (domain.School, error)
	GetWorkspaceContextFunc func(ctx context.Context, tenantID string) (domain.WorkspaceContext, error)
	ListCatalogFunc         func(ctx context.Context, tenantID string, ct domain.ContentType) ([]domain.CatalogEntry, error)
	ListWorkspacesFunc      func(ctx context.Context) ([]domain.Workspace, error)
	UpdateWorkspaceFunc     func(ctx context.Context, id string, fn func(ws *domain.Workspace) error) (domain.Workspace, error)

	calls struct {
		CreateSchool []struct {
			Ctx    context.Context
			School domain.School
		}
		CreateWorkspace []struct {
			Ctx         context.Context
			Id          string
			DisplayName string
		}
		GetDataset []struct {
			Ctx      context.Context
			TenantID string
			FileName string
		}
		GetSchool []struct {
			Ctx context.Context
			Id  string
		}
		GetWorkspaceContext []struct {
			Ctx      context.Context
			TenantID string
		}
		ListCatalog []struct {
			Ctx      context.Context
			TenantID string
			Ct       domain.ContentType
		}
		ListWorkspaces []struct {
			Ctx context.Context
		}
		UpdateWorkspace []struct {
			Ctx context.Context
			Id  string
			Fn  func(ws *domain.Workspace) error
		}
	}
	lockCreateSchool        sync.RWMutex
	lockCreateWorkspace     sync.RWMutex
	lockGetDataset          sync.RWMutex
	lockGetSchool           sync.RWMutex
	lockGetWorkspaceContext sync.RWMutex
	lockListCatalog         sync.RWMutex
	lockListWorkspaces      sync.RWMutex
	lockUpdateWorkspace     sync.RWMutex
}

func (mock *workspaceStoreMock) CreateSchool(ctx context.Context, school domain.School) (domain.School, error) {
	if mock.CreateSchoolFunc == nil {
		panic("workspaceStoreMock.CreateSchoolFunc: method is nil but workspaceStore.CreateSchool was just called")
	}
	callInfo := struct {
		Ctx    context.Context
		School domain.School
	}{Ctx: ctx, School: school}
	mock.lockCreateSchool.Lock()
	mock.calls.CreateSchool = append(mock.calls.CreateSchool, callInfo)
	mock.lockCreateSchool.Unlock()
	return mock.CreateSchoolFunc(ctx, school)
}

func (mock *workspaceStoreMock) CreateSchoolCalls() []struct {
	Ctx    context.Context
	School domain.School
} {
	mock.lockCreateSchool.RLock()
	calls := mock.calls.CreateSchool
	mock.lockCreateSchool.RUnlock()
	return calls
}

func (mock *workspaceStoreMock) CreateWorkspace(ctx context.Context, id string, displayName string) (domain.Workspace, error) {
	if mock.CreateWorkspaceFunc == nil {
		panic("workspaceStoreMock.CreateWorkspaceFunc: method is nil but workspaceStore.CreateWorkspace was just called")
	}
	callInfo := struct {
		Ctx         context.Context
		Id          string
		DisplayName string
	}{Ctx: ctx, Id: id, DisplayName: displayName}
	mock.lockCreateWorkspace.Lock()
	mock.calls.CreateWorkspace = append(mock.calls.CreateWorkspace, callInfo)
	mock.lockCreateWorkspace.Unlock()
	return mock.CreateWorkspaceFunc(ctx, id, displayName)
}

func (mock *workspaceStoreMock) CreateWorkspaceCalls() []struct {
	Ctx         context.Context
	Id          string
	DisplayName string
} {
	mock.lockCreateWorkspace.RLock()
	calls := mock.calls.CreateWorkspace
	mock.lockCreateWorkspace.RUnlock()
	return calls
}

func (mock *workspaceStoreMock) GetDataset(ctx context.Context, tenantID string, fileName string) (storage.Dataset, error) {
	if mock.GetDatasetFunc == nil {
		panic("workspaceStoreMock.GetDatasetFunc: method is nil but workspaceStore.GetDataset was just called")
	}
	callInfo := struct {
		Ctx      context.Context
		TenantID string
		FileName string
	}{Ctx: ctx, TenantID: tenantID, FileName: fileName}
	mock.lockGetDataset.Lock()
	mock.calls.GetDataset = append(mock.calls.GetDataset, callInfo)
	mock.lockGetDataset.Unlock()
	return mock.GetDatasetFunc(ctx, tenantID, fileName)
}

func (mock *workspaceStoreMock) GetDatasetCalls() []struct {
	Ctx      context.Context
	TenantID string
	FileName string
} {
	mock.lockGetDataset.RLock()
	calls := mock.calls.GetDataset
	mock.lockGetDataset.RUnlock()
	return calls
}

func (mock *workspaceStoreMock) GetSchool(ctx context.Context, id string) (domain.School, error) {
	if mock.GetSchoolFunc == nil {
		panic("workspaceStoreMock.GetSchoolFunc: method is nil but workspaceStore.GetSchool was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Id  string
	}{Ctx: ctx, Id: id}
	mock.lockGetSchool.Lock()
	mock.calls.GetSchool = append(mock.calls.GetSchool, callInfo)
	mock.lockGetSchool.Unlock()
	return mock.GetSchoolFunc(ctx, id)
}

func (mock *workspaceStoreMock) GetSchoolCalls() []struct {
	Ctx context.Context
	Id  string
} {
	mock.lockGetSchool.RLock()
	calls := mock.calls.GetSchool
	mock.lockGetSchool.RUnlock()
	return calls
}

func (mock *workspaceStoreMock) GetWorkspaceContext(ctx context.Context, tenantID string) (domain.WorkspaceContext, error) {
	if mock.GetWorkspaceContextFunc == nil {
		panic("workspaceStoreMock.GetWorkspaceContextFunc: method is nil but workspaceStore.GetWorkspaceContext was just called")
	}
	callInfo := struct {
		Ctx      context.Context
		TenantID string
	}{Ctx: ctx, TenantID: tenantID}
	mock.lockGetWorkspaceContext.Lock()
	mock.calls.GetWorkspaceContext = append(mock.calls.GetWorkspaceContext, callInfo)
	mock.lockGetWorkspaceContext.Unlock()
	return mock.GetWorkspaceContextFunc(ctx, tenantID)
}

func (mock *workspaceStoreMock) GetWorkspaceContextCalls() []struct {
	Ctx      context.Context
	TenantID string
} {
	mock.lockGetWorkspaceContext.RLock()
	calls := mock.calls.GetWorkspaceContext
	mock.lockGetWorkspaceContext.RUnlock()
	return calls
}

func (mock *workspaceStoreMock) ListCatalog(ctx context.Context, tenantID string, ct domain.ContentType) ([]domain.CatalogEntry, error) {
	if mock.ListCatalogFunc == nil {
		panic("workspaceStoreMock.ListCatalogFunc: method is nil but workspaceStore.ListCatalog was just called")
	}
	callInfo := struct {
		Ctx      context.Context
		TenantID string
		Ct       domain.ContentType
	}{Ctx: ctx, TenantID: tenantID, Ct: ct}
	mock.lockListCatalog.Lock()
	mock.calls.ListCatalog = append(mock.calls.ListCatalog, callInfo)
	mock.lockListCatalog.Unlock()
	return mock.ListCatalogFunc(ctx, tenantID, ct)
}

func (mock *workspaceStoreMock) ListCatalogCalls() []struct {
	Ctx      context.Context
	TenantID string
	Ct       domain.ContentType
} {
	mock.lockListCatalog.RLock()
	calls := mock.calls.ListCatalog
	mock.lockListCatalog.RUnlock()
	return calls
}

func (mock *workspaceStoreMock) ListWorkspaces(ctx context.Context) ([]domain.Workspace, error) {
	if mock.ListWorkspacesFunc == nil {
		panic("workspaceStoreMock.ListWorkspacesFunc: method is nil but workspaceStore.ListWorkspaces was just called")
	}
	callInfo := struct {
		Ctx context.Context
	}{Ctx: ctx}
	mock.lockListWorkspaces.Lock()
	mock.calls.ListWorkspaces = append(mock.calls.ListWorkspaces, callInfo)
	mock.lockListWorkspaces.Unlock()
	return mock.ListWorkspacesFunc(ctx)
}

func (mock *workspaceStoreMock) ListWorkspacesCalls() []struct {
	Ctx context.Context
} {
	mock.lockListWorkspaces.RLock()
	calls := mock.calls.ListWorkspaces
	mock.lockListWorkspaces.RUnlock()
	return calls
}

func (mock *workspaceStoreMock) UpdateWorkspace(ctx context.Context, id string, fn func(ws *domain.Workspace) error) (domain.Workspace, error) {
	if mock.UpdateWorkspaceFunc == nil {
		panic("workspaceStoreMock.UpdateWorkspaceFunc: method is nil but workspaceStore.UpdateWorkspace was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Id  string
		Fn  func(ws *domain.Workspace) error
	}{Ctx: ctx, Id: id, Fn: fn}
	mock.lockUpdateWorkspace.Lock()
	mock.calls.UpdateWorkspace = append(mock.calls.UpdateWorkspace, callInfo)
	mock.lockUpdateWorkspace.Unlock()
	return mock.UpdateWorkspaceFunc(ctx, id, fn)
}

func (mock *workspaceStoreMock) UpdateWorkspaceCalls() []struct {
	Ctx context.Context
	Id  string
	Fn  func(ws *domain.Workspace) error
} {
	mock.lockUpdateWorkspace.RLock()
	calls := mock.calls.UpdateWorkspace
	mock.lockUpdateWorkspace.RUnlock()
	return calls
}
