package usecase

import (
	"context"

	"github.com/runoshun/kanban-sync/internal/domain"
)

// RedactedSecret stands in for the store encryption key wherever the
// effective board config is displayed.
const RedactedSecret = "********"

// ShowConfigInput contains the input for the ShowConfig use case.
type ShowConfigInput struct{}

// ShowConfigOutput describes where the board config came from and what it
// resolved to.
type ShowConfigOutput struct {
	Effective domain.Config       // Merged config with secrets masked
	Sources   []domain.ConfigInfo // Global file first, then .kanban/config.toml
}

// ShowConfig reports the config files a board reads and the merged result.
// A board file overrides the global one key by key.
type ShowConfig struct {
	configManager domain.ConfigManager
	effective     *domain.Config
}

// NewShowConfig creates a new ShowConfig use case. effective is the config
// the board was opened with.
func NewShowConfig(configManager domain.ConfigManager, effective *domain.Config) *ShowConfig {
	return &ShowConfig{
		configManager: configManager,
		effective:     effective,
	}
}

// Execute lists the sources in precedence order and masks the encryption key.
func (uc *ShowConfig) Execute(_ context.Context, _ ShowConfigInput) (*ShowConfigOutput, error) {
	effective := uc.effective
	if effective == nil {
		effective = domain.NewDefaultConfig()
	}
	masked := *effective
	if masked.Store.EncryptionKey != "" {
		masked.Store.EncryptionKey = RedactedSecret
	}

	return &ShowConfigOutput{
		Sources: []domain.ConfigInfo{
			uc.configManager.GetGlobalConfigInfo(),
			uc.configManager.GetBoardConfigInfo(),
		},
		Effective: masked,
	}, nil
}

// InitConfigInput contains the input for the InitConfig use case.
type InitConfigInput struct {
	Config *domain.Config // Values written as the file's defaults; nil uses built-ins
	Global bool           // Write ~/.config/kanban/config.toml instead of the board file
}

// InitConfigOutput contains the output of the InitConfig use case.
type InitConfigOutput struct {
	Path string
}

// InitConfig writes a commented config file for the board or for the user.
// An existing file is never overwritten.
type InitConfig struct {
	configManager domain.ConfigManager
}

// NewInitConfig creates a new InitConfig use case.
func NewInitConfig(configManager domain.ConfigManager) *InitConfig {
	return &InitConfig{configManager: configManager}
}

// Execute creates the file. Returns domain.ErrConfigExists if it is already there.
func (uc *InitConfig) Execute(_ context.Context, in InitConfigInput) (*InitConfigOutput, error) {
	cfg := in.Config
	if cfg == nil {
		cfg = domain.NewDefaultConfig()
	}

	if in.Global {
		if err := uc.configManager.InitGlobalConfig(cfg); err != nil {
			return nil, err
		}
		return &InitConfigOutput{Path: uc.configManager.GetGlobalConfigInfo().Path}, nil
	}
	if err := uc.configManager.InitBoardConfig(cfg); err != nil {
		return nil, err
	}
	return &InitConfigOutput{Path: uc.configManager.GetBoardConfigInfo().Path}, nil
}

// ShowConfigTemplateInput contains the input for the ShowConfigTemplate use case.
type ShowConfigTemplateInput struct {
	Config *domain.Config // nil renders the built-in defaults
}

// ShowConfigTemplateOutput contains the output of the ShowConfigTemplate use case.
type ShowConfigTemplateOutput struct {
	Template string
}

// ShowConfigTemplate renders the annotated config.toml without touching disk,
// so it works even when the board's own config file is broken.
type ShowConfigTemplate struct{}

// NewShowConfigTemplate creates a new ShowConfigTemplate use case.
func NewShowConfigTemplate() *ShowConfigTemplate {
	return &ShowConfigTemplate{}
}

// Execute renders the template.
func (uc *ShowConfigTemplate) Execute(_ context.Context, in ShowConfigTemplateInput) (*ShowConfigTemplateOutput, error) {
	cfg := in.Config
	if cfg == nil {
		cfg = domain.NewDefaultConfig()
	}
	return &ShowConfigTemplateOutput{Template: domain.RenderConfigTemplate(cfg)}, nil
}
