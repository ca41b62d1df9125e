package registry_test

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/feral-file/ff-token-scanner/internal/domain"
	"github.com/feral-file/ff-token-scanner/internal/mocks"
	"github.com/feral-file/ff-token-scanner/internal/registry"
)

const (
	router  = "0x4752ba5dbc23f44d87826276bf6fd6b1c372ad24"
	factory = "0x8909Dc15e40173Ff4699343b6eB8132c65e18eC6"
)

func TestIgnoreListLoader_Load(t *testing.T) {
	tests := []struct {
		name         string
		setupMocks   func(*mocks.MockFileSystem)
		expectedErr  string
		validateFunc func(t *testing.T, list registry.IgnoreList)
	}{
		{
			name: "valid file",
			setupMocks: func(fs *mocks.MockFileSystem) {
				fs.EXPECT().
					ReadFile("ignore.json").
					Return([]byte(`{"eip155:8453": ["`+router+`", "`+factory+`"]}`), nil)
			},
			validateFunc: func(t *testing.T, list registry.IgnoreList) {
				assert.Equal(t, 2, list.Len())
				assert.True(t, list.IsIgnored(domain.ChainBaseMainnet, router))
				assert.True(t, list.IsIgnored(domain.ChainBaseMainnet, "0x8909dc15e40173ff4699343b6eb8132c65e18ec6"))
				assert.False(t, list.IsIgnored(domain.ChainEthereumMainnet, router))
				assert.False(t, list.IsIgnored(domain.ChainBaseMainnet, "0x0000000000000000000000000000000000000001"))
			},
		},
		{
			name: "empty file",
			setupMocks: func(fs *mocks.MockFileSystem) {
				fs.EXPECT().ReadFile("ignore.json").Return([]byte(`{}`), nil)
			},
			validateFunc: func(t *testing.T, list registry.IgnoreList) {
				assert.Equal(t, 0, list.Len())
				assert.False(t, list.IsIgnored(domain.ChainBaseMainnet, router))
			},
		},
		{
			name: "case insensitive chain and address",
			setupMocks: func(fs *mocks.MockFileSystem) {
				fs.EXPECT().ReadFile("ignore.json").Return([]byte(`{"EIP155:8453": ["`+factory+`"]}`), nil)
			},
			validateFunc: func(t *testing.T, list registry.IgnoreList) {
				assert.True(t, list.IsIgnored(domain.ChainBaseMainnet, "0X8909DC15E40173FF4699343B6EB8132C65E18EC6"))
			},
		},
		{
			name: "read error",
			setupMocks: func(fs *mocks.MockFileSystem) {
				fs.EXPECT().ReadFile("ignore.json").Return(nil, assert.AnError)
			},
			expectedErr: "failed to read ignore list file",
		},
		{
			name: "invalid json",
			setupMocks: func(fs *mocks.MockFileSystem) {
				fs.EXPECT().ReadFile("ignore.json").Return([]byte(`invalid json`), nil)
			},
			expectedErr: "failed to parse ignore list JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			fs := mocks.NewMockFileSystem(ctrl)
			tt.setupMocks(fs)

			list, err := registry.NewIgnoreListLoader(fs).Load("ignore.json")
			if tt.expectedErr != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErr)
				assert.Nil(t, list)
				return
			}
			assert.NoError(t, err)
			tt.validateFunc(t, list)
		})
	}
}

func TestIgnoreList_NilSafe(t *testing.T) {
	var list registry.IgnoreList = registry.NewIgnoreList(nil)
	assert.False(t, list.IsIgnored(domain.ChainBaseMainnet, router))
	assert.Equal(t, 0, list.Len())
}
