package session

// Text sent to clients. Prompts end without a newline so the reply is
// typed on the same line.
const (
	msgWelcome        = "Welcome! Login (1) or Register (2): "
	msgInvalidWelcome = "Invalid choice. Disconnecting...\n"

	msgUsername        = "Enter username: "
	msgPassword        = "Enter password: "
	msgLoggedIn        = "Logged in successfully!\n"
	msgBadCredentials  = "Invalid credentials. Disconnecting...\n"
	msgAlreadyLoggedIn = "User %s is already logged in. Disconnecting...\n"
	msgNewUsername     = "Enter a new username: "
	msgNewPassword     = "Enter a new password: "
	msgUsernameTaken   = "Username already exists. Disconnecting...\n"
	msgUsernameEmpty   = "Username cannot be empty. Disconnecting...\n"
	msgRegistered      = "Registration successful! You are now logged in.\n"

	msgMenu = "Available commands:\n" +
		"1. Play Game\n" +
		"2. View Rankings\n" +
		"3. Create Tournament\n" +
		"4. Join Tournament\n" +
		"5. Start Tournament\n" +
		"6. Quit\n"

	msgInvalidChoice = "Invalid choice. Please try again.\n"
	msgGoodbye       = "Goodbye!\n"

	msgNoRankings = "No rankings available yet.\n"
	msgRankings   = "Player Rankings:\n"

	msgAlreadyQueued = "You are already waiting for a match.\n"

	msgTournamentName      = "Enter tournament name: "
	msgTournamentCreated   = "Tournament '%s' created.\n"
	msgTournamentExists    = "Tournament with this name already exists.\n"
	msgTournamentNameEmpty = "Tournament name cannot be empty.\n"

	msgNoneToJoin       = "No tournaments available to join.\n"
	msgJoinList         = "Available tournaments to join:\n"
	msgJoinEntry        = "%d. %s (Creator: %s)\n"
	msgJoinPrompt       = "Enter tournament number to join (0 to cancel): "
	msgJoined           = "Successfully joined tournament '%s'. Waiting for the tournament to start...\n"
	msgAlreadyJoined    = "You are already in this tournament.\n"
	msgAlreadyStarted   = "This tournament has already started.\n"
	msgTournamentGone   = "That tournament no longer exists.\n"
	msgNoneToStart      = "You have no tournaments ready to start (must have at least 2 players).\n"
	msgStartList        = "Available tournaments to start:\n"
	msgStartEntry       = "%d. %s (Players: %d)\n"
	msgStartPrompt      = "Enter tournament number to start (0 to cancel): "
	msgStarted          = "Tournament '%s' started!\n"
	msgNotEnoughPlayers = "Tournament needs at least 2 players to start.\n"
	msgInvalidNumber    = "Invalid tournament number.\n"
	msgNotANumber       = "Invalid input. Please enter a number.\n"
)
