package chatsim

// DefaultTemplates is the built-in synthetic message pool. Overridable via
// CHAT_TEMPLATES (see config).
var DefaultTemplates = []string{
	"this stream is so good",
	"LOL did you see that",
	"first time here, loving it",
	"POG",
	"what song is this?",
	"greetings from brazil 🇧🇷",
	"can we get a replay of that",
	"chat is moving fast today",
	"W stream",
	"anyone else lagging or just me",
	"the vibes are immaculate",
	"how long has the stream been live?",
	"no way that just happened",
	"clip it and ship it",
	"mods are asleep",
	"I can't believe it's not butter",
	"hello from the other side",
	"this deserves way more viewers",
	"ok that was actually insane",
	"lurking but had to say hi",
}

// DefaultAuthors is the built-in synthetic author pool. The sentinel author
// for priority messages is reserved and never appears here.
var DefaultAuthors = []string{
	"pixel_witch",
	"moss_gremlin",
	"night_owl42",
	"tape_deck",
	"soup_enjoyer",
	"lurker_prime",
	"static_bloom",
	"kilowatt_kat",
	"dial_up_dan",
	"fern_dream",
}
