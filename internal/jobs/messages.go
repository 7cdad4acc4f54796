package job

// User-facing notices. Expected outcomes get specific text; anything
// unexpected gets msgGenericFailure and the detail stays in the logs.
const (
	msgNoQuota        = "You have no generations left. Top up your balance to keep scenario \"%s\" running."
	msgNoNews         = "Scenario \"%s\": no fresh news found for this topic."
	msgNoUniqueNews   = "Scenario \"%s\": all fresh news has already been published in this channel."
	msgNoArticle      = "Scenario \"%s\": none of the selected articles could be read. No generation was charged."
	msgDraftFailed    = "Scenario \"%s\": the post could not be generated (%v). No generation was charged."
	msgDeliveryFailed = "Scenario \"%s\": the post was generated but could not be delivered. Check the bot's permissions in the channel."
	msgGenericFailure = "Something went wrong while running scenario \"%s\". Please try again later."
)
