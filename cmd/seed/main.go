package main

import (
	"flag"
	"log"
	"strconv"
	"time"

	"github.com/plothook/api/internal/auth"
	"github.com/plothook/api/internal/config"
	"github.com/plothook/api/internal/database"
	"github.com/plothook/api/internal/joincode"
	"github.com/plothook/api/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func main() {
	// Parse command line flags
	dmUsername := flag.String("dm", "testdm", "Username for the seeded DM account")
	password := flag.String("password", "testpass123", "Password for all seeded accounts")
	playerCount := flag.Int("players", 2, "Number of player accounts to create")
	worldName := flag.String("world", "Aevareth", "Name of the seeded world")
	flag.Parse()

	cfg := config.Load()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	dm := seedUser(db, *dmUsername, *dmUsername+"@example.com", hash, model.RoleDM)
	log.Printf("DM account ready: %s (id=%d)", dm.Username, dm.ID)

	players := make([]*model.User, 0, *playerCount)
	for i := 1; i <= *playerCount; i++ {
		name := "testplayer" + strconv.Itoa(i)
		players = append(players, seedUser(db, name, name+"@example.com", hash, model.RolePlayer))
	}
	log.Printf("Created %d player accounts", len(players))

	world := seedWorld(db, *worldName, dm.ID)
	log.Printf("World %q ready, join code %s", world.Name, world.JoinCode)

	for _, player := range players {
		membership := model.WorldMembership{WorldID: world.ID, UserID: player.ID, Role: model.WorldRolePlayer}
		db.Where("world_id = ? AND user_id = ?", world.ID, player.ID).FirstOrCreate(&membership)
	}

	history := seedCategory(db, world, dm.ID, "History", model.BookWorld, nil, false)
	war := seedCategory(db, world, dm.ID, "The First Great War", model.BookWorld, &history.ID, true)
	places := seedCategory(db, world, dm.ID, "Places", model.BookWorld, nil, false)
	seedCategory(db, world, dm.ID, "Campaign Log", model.BookStory, nil, false)
	if len(players) > 0 {
		seedCategory(db, world, players[0].ID, "My Characters", model.BookAdventurer, nil, false)
	}

	seedEntry(db, war, dm.ID, "The Sundering of Aevar",
		"The war began when the twin kingdoms broke their ancient pact. What followed reshaped the continent.")
	capital := seedEntry(db, places, dm.ID, "Silverhold",
		"The mountain capital. Its vaults are said to hold relics from before the Sundering.")

	block := model.HiddenTextBlock{
		EntryID:       capital.ID,
		Content:       "The vaults are empty; the relics were stolen decades ago.",
		StartPosition: 22,
		EndPosition:   40,
	}
	db.Where("entry_id = ?", capital.ID).FirstOrCreate(&block)

	session := model.Session{
		Title:         "Session Zero",
		Description:   "Character creation and world introduction.",
		WorldID:       world.ID,
		DMID:          dm.ID,
		ScheduledDate: time.Now().Add(72 * time.Hour),
		Status:        model.SessionPlanned,
	}
	db.Where("world_id = ? AND title = ?", world.ID, session.Title).FirstOrCreate(&session)
	for _, player := range players {
		sp := model.SessionPlayer{SessionID: session.ID, UserID: player.ID}
		db.Where("session_id = ? AND user_id = ?", session.ID, player.ID).FirstOrCreate(&sp)
	}

	quest := model.Quest{
		Title:       "Recover the Silverhold Relics",
		Description: "Track down what was taken from the mountain vaults.",
		WorldID:     world.ID,
		QuestType:   model.QuestMain,
		Status:      model.QuestActive,
		Objectives:  datatypes.JSON([]byte(`["Find the vault records", "Question the old castellan", "Locate the thieves' buyer"]`)),
	}
	db.Where("world_id = ? AND title = ?", world.ID, quest.Title).FirstOrCreate(&quest)

	log.Printf("Seeding complete: world=%d session=%d quest=%d", world.ID, session.ID, quest.ID)
}

func seedUser(db *gorm.DB, username, email, hash string, role model.Role) *model.User {
	user := model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := db.Where("username = ?", username).FirstOrCreate(&user).Error; err != nil {
		log.Fatalf("Failed to seed user %s: %v", username, err)
	}
	profile := model.UserProfile{UserID: user.ID}
	db.Where("user_id = ?", user.ID).FirstOrCreate(&profile)
	return &user
}

func seedWorld(db *gorm.DB, name string, ownerID int64) *model.World {
	code, err := joincode.New()
	if err != nil {
		log.Fatalf("Failed to generate join code: %v", err)
	}
	world := model.World{
		Name:        name,
		Description: "A seeded campaign world for local development.",
		OwnerID:     ownerID,
		JoinCode:    code,
		IsActive:    true,
	}
	if err := db.Where("name = ? AND owner_id = ?", name, ownerID).FirstOrCreate(&world).Error; err != nil {
		log.Fatalf("Failed to seed world %s: %v", name, err)
	}
	return &world
}

func seedCategory(db *gorm.DB, world *model.World, ownerID int64, title string, bookType model.BookType, parentID *int64, hidden bool) *model.Category {
	category := model.Category{
		Title:    title,
		WorldID:  world.ID,
		OwnerID:  ownerID,
		BookType: bookType,
		ParentID: parentID,
		IsHidden: hidden,
	}
	if err := db.Where("world_id = ? AND title = ?", world.ID, title).FirstOrCreate(&category).Error; err != nil {
		log.Fatalf("Failed to seed category %s: %v", title, err)
	}
	return &category
}

func seedEntry(db *gorm.DB, category *model.Category, ownerID int64, title, content string) *model.Entry {
	entry := model.Entry{
		Title:      title,
		Content:    content,
		CategoryID: category.ID,
		BookType:   category.BookType,
		WorldID:    category.WorldID,
		OwnerID:    ownerID,
	}
	if err := db.Where("category_id = ? AND title = ?", category.ID, title).FirstOrCreate(&entry).Error; err != nil {
		log.Fatalf("Failed to seed entry %s: %v", title, err)
	}
	return &entry
}
