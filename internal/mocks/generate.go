// Package mocks provides gomock implementations of the collaborators the
// console services depend on.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockObjectStore(ctrl)
//	store.EXPECT().Put(gomock.Any(), "CAS-1/a.pdf", gomock.Any()).Return(nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=object_store_mock.go github.com/dmitrijs2005/casconsole/internal/client/storage ObjectStore
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_submitter_mock.go github.com/dmitrijs2005/casconsole/internal/client/client JobSubmitter
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=history_fetcher_mock.go github.com/dmitrijs2005/casconsole/internal/client/client HistoryFetcher
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=token_provider_mock.go -mock_names=Provider=MockTokenProvider github.com/dmitrijs2005/casconsole/internal/client/auth Provider
