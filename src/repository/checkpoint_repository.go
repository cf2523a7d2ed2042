package repository

import (
	"database/sql"
	"encoding/json"
	"gitlab.com/open-soft/go-adaptive-bot/src/model"
	"log"
	"time"
)

const CheckpointKeyPolicy = "engine-policy"
const CheckpointKeyOptimizer = "engine-optimizer"
const CheckpointKeyEngine = "engine-state"

type CheckpointStorageInterface interface {
	LoadCheckpoint(key string, object interface{}) error
	SaveCheckpoint(key string, object interface{}) error
}

// CheckpointRepository stores opaque JSON blobs keyed per bot. The engine
// does not interpret them beyond load/save.
type CheckpointRepository struct {
	DB         *sql.DB
	CurrentBot *model.Bot
}

func (c *CheckpointRepository) LoadCheckpoint(key string, object interface{}) error {
	var jsonString string
	err := c.DB.QueryRow(`
		SELECT
			cs.object as ObjectJSON
		FROM checkpoint_storage cs WHERE cs.storage_key = ? AND cs.bot_id = ?
	`, key, c.CurrentBot.Id).Scan(
		&jsonString,
	)

	if err != nil {
		return err
	}

	err = json.Unmarshal([]byte(jsonString), object)
	if err != nil {
		return err
	}

	return nil
}

func (c *CheckpointRepository) SaveCheckpoint(key string, object interface{}) error {
	jsonString, err := json.Marshal(object)
	if err != nil {
		return err
	}

	_, err = c.DB.Exec(`
		INSERT INTO checkpoint_storage SET
			storage_key = ?,
			object = ?,
			created_at = ?,
			updated_at = ?,
			bot_id = ?
		ON DUPLICATE KEY UPDATE
			object = ?,
			updated_at = ?
	`,
		key,
		jsonString,
		time.Now(),
		time.Now(),
		c.CurrentBot.Id,
		jsonString,
		time.Now(),
	)

	if err != nil {
		log.Println(err)

		return err
	}

	return nil
}

func (c *CheckpointRepository) DeleteCheckpoint(key string) error {
	_, err := c.DB.Exec(`
		DELETE FROM checkpoint_storage WHERE storage_key = ? AND bot_id = ?
	`, key, c.CurrentBot.Id)
	if err != nil {
		log.Println(err)
		return err
	}

	return nil
}
