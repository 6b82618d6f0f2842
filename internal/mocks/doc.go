// Package mocks provides centralized test doubles for the store and auth
// interfaces.
//
// Two styles are used. The Mock* types carry function fields that override a
// default in-memory behavior, which suits handler and router tests:
//
//	tasks := mocks.NewMockTaskStore()
//	tasks.DeleteFn = func(ctx context.Context, id string) error {
//	    return store.ErrTaskNotFound
//	}
//
// The Testify* types embed testify's mock.Mock for tests that assert on the
// exact calls a service makes.
package mocks
