// Package replies holds the hand-authored canned responses and the resolver
// that matches an incoming message against them.
//
// The tables are process-wide static configuration: built once, never
// mutated afterwards, and therefore safe for concurrent reads without
// locking. Both tables are ordered slices of key/candidates pairs rather
// than maps so that "first matching key wins" stays reproducible — map
// iteration order would make the casual-phrase tie-break nondeterministic.
package replies

// Candidates is a list of interchangeable reply strings for one key.
// A reply is picked uniformly at random from the list.
type Candidates []string

// Topic maps a full-message keyword (e.g. "diet") to its candidate replies.
// Topics only match when the entire normalized message equals the key.
type Topic struct {
	Key     string
	Replies Candidates
}

// Casual maps a conversational keyword (e.g. "bye") to its candidate
// replies. Casual keys match when the key appears as a whole word of, or a
// substring in, the normalized message.
type Casual struct {
	Key     string
	Replies Candidates
}

// Table is the full canned-reply configuration: exact-match topics first,
// then the casual-phrase scan, both in authored order.
type Table struct {
	Topics []Topic
	Casual []Casual
}

// dietPlans groups the meal-plan replies by age band. The groups surface as
// "diet plan for <band>" topic keys in DefaultTable.
var dietPlans = map[string]Candidates{
	"children": {
		"Breakfast: Oatmeal with berries, scrambled eggs, and milk.",
		"Lunch: Whole grain sandwich with lean turkey, lettuce, and tomato.",
		"Dinner: Grilled chicken with brown rice and steamed vegetables.",
		"Snacks: Carrot sticks, apple slices with peanut butter, or low-fat yogurt.",
	},
	"teenagers": {
		"Breakfast: Whole grain toast with avocado and eggs, smoothie with spinach and banana.",
		"Lunch: Quinoa salad with grilled chicken, spinach, and a lemon dressing.",
		"Dinner: Grilled salmon, roasted potatoes, and broccoli.",
		"Snacks: Handful of nuts, mixed fruit, or yogurt parfait with granola.",
	},
	"adults": {
		"Breakfast: Whole wheat toast with avocado and scrambled eggs, a side of mixed fruit.",
		"Lunch: Grilled chicken breast with quinoa and steamed veggies.",
		"Dinner: Baked salmon with a side of brown rice and sautéed spinach.",
		"Snacks: Carrot sticks, hummus, or a small handful of almonds.",
	},
	"seniors": {
		"Breakfast: Steel-cut oatmeal with chia seeds and fruit.",
		"Lunch: Grilled chicken or fish with a side of leafy greens and roasted sweet potatoes.",
		"Dinner: Grilled vegetables with lean protein like chicken or turkey.",
		"Snacks: Low-fat cheese, fruit, or a handful of walnuts.",
	},
}

// DefaultTable returns the built-in ZenBot reply tables.
//
// Topic order is the published quick-reply order; casual order decides the
// tie-break when several keys occur in one message.
func DefaultTable() *Table {
	t := &Table{
		Topics: []Topic{
			{Key: "health", Replies: Candidates{
				"A healthy outside starts from the inside. — Robert Urich",
				"Mental health is just as important as physical health.",
				"What are some healthy habits I can add to my routine?",
				"How can I reduce stress effectively?",
			}},
			{Key: "diet", Replies: Candidates{
				"Eating a variety of nutrient-rich foods helps your body function at its best.",
				"Drinking plenty of water throughout the day keeps you hydrated and supports healthy digestion.",
				"Limiting processed foods and eating whole, fresh foods is key to a healthy diet.",
				"Including more fruits and vegetables in your meals can provide essential vitamins and minerals.",
				"Don't skip meals. Having balanced meals regularly helps maintain energy levels.",
			}},
			{Key: "importance of healthy diet", Replies: Candidates{
				"A healthy diet boosts your immune system and reduces the risk of chronic diseases.",
				"Eating a balanced diet helps maintain healthy weight and improves overall well-being.",
				"Proper nutrition is essential for mental clarity, energy, and mood regulation.",
				"A healthy diet supports good skin, hair, and a stronger body.",
			}},
			{Key: "quote", Replies: Candidates{
				"Let food be thy medicine and medicine be thy food. — Hippocrates",
				"You are what you eat. — Anonymous",
				"Healthy eating is a way of life, so it’s important to establish routines that are simple, realistic, and ultimately livable. — Horace",
				"A healthy diet is a solution to many of our health-care problems. — T. Colin Campbell",
			}},
			{Key: "exercise", Replies: Candidates{
				"Exercise strengthens your muscles, boosts your mood, and improves cardiovascular health.",
				"Aim for 30 minutes of moderate exercise daily — walking, cycling, or swimming are great!",
				"Regular physical activity reduces risk of diabetes, heart disease, and obesity.",
			}},
			{Key: "mental health", Replies: Candidates{
				"Mental health is as important as physical health — care for your mind daily.",
				"Practice mindfulness, talk to someone, and take breaks for mental well-being.",
				"It's okay to ask for help. You're not alone — mental health matters.",
			}},
		},
		Casual: []Casual{
			{Key: "hi", Replies: Candidates{"Hey there!", "Hello! 👋", "Hi! How can I assist you today?"}},
			{Key: "hello", Replies: Candidates{"Hello! How can I help?", "Hi there!", "Hey! What can I do for you?"}},
			{Key: "how are you", Replies: Candidates{"I'm doing great, thanks for asking! 😊", "I'm good! How about you?", "I'm fantastic, thanks for asking!"}},
			{Key: "how was your day", Replies: Candidates{"My day is going well, thanks! How about yours?", "Great day so far! You?", "It’s been a productive day!"}},
			{Key: "thank you", Replies: Candidates{"You're welcome!", "No problem! 😊", "Glad to help!"}},
			{Key: "bye", Replies: Candidates{"Goodbye! Take care! 👋", "See you soon!", "Bye! Have a great day!"}},
			{Key: "who are you", Replies: Candidates{"I'm ZenBot, your friendly assistant!", "ZenBot here to help! 🤖"}},
			{Key: "your name", Replies: Candidates{"I'm ZenBot, nice to meet you!"}},
			{Key: "help", Replies: Candidates{"Sure! Ask me anything related to health, diet, or well-being."}},
			{Key: "what can you do", Replies: Candidates{"I can provide tips on health, diet plans, and answer your wellness queries."}},
		},
	}

	// Expose the age-band groups as exact-match topic keys.
	for _, band := range []string{"children", "teenagers", "adults", "seniors"} {
		t.Topics = append(t.Topics, Topic{Key: "diet plan for " + band, Replies: dietPlans[band]})
	}
	return t
}
