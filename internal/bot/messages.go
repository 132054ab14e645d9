package bot

// =============================================================================
// General messages
// =============================================================================

const (
	MsgStart = `
	♻️ *Welcome to Scrapify!*

	Send me a photo of an item you want to recycle, with a short description in the caption, and I will estimate its scrap value.

	After the estimate you can schedule a pickup right here in the chat.`
	MsgHelp = `
	Send a photo with a description to get an estimate.

	/estimate - start a new estimate
	/cancel - discard the current estimate
	/dashboard - your recycling summary
	/rewards - rewards you can redeem`
	MsgOk            = "Ok! Send a photo whenever you are ready."
	MsgUnexpectedErr = "Something went wrong: %s"
	MsgUseButtons    = "Use the buttons above to continue, or /estimate to start over."
	MsgStillWorking  = "⏳ Still working on it, please wait..."
)

// =============================================================================
// Estimate messages
// =============================================================================

const (
	MsgSendPhotoAndDescription = "Send a photo of the item with a short description in the caption."
	MsgSendPhoto               = "Got it. Now send a photo of the item."
	MsgSendDescription         = "Nice photo! Now describe the item in a few words (e.g. \"old laptop, broken screen\")."
	MsgEstimating              = "🔍 Estimating the scrap value..."
	MsgPhotoDownloadFailed     = "Could not download the photo. Please try again."
	MsgResult                  = `
	*Estimated Value:* %s

	*Material Composition:* %s
	*Condition:* %s`
	MsgResultCached = "_(from a recent estimate of the same item)_"
)

// =============================================================================
// Pickup messages
// =============================================================================

const (
	MsgSchedule = `
	*Schedule Pickup*
	Choose a date and a time slot, then confirm.

	*Date:* %s
	*Time:* %s`
	MsgNotSelected = "not selected"
	MsgScheduling  = "📅 Confirming your pickup..."
	MsgSuccess     = `
	✅ *Pickup Scheduled!*

	%s`
)

// =============================================================================
// Button labels
// =============================================================================

const (
	BtnSchedulePickup   = "Schedule Pickup"
	BtnStartNewEstimate = "Start New Estimate"
	BtnConfirmPickup    = "Confirm Pickup"
	BtnBackToEstimate   = "Back to Estimate"
	BtnScheduleAnother  = "Schedule Another Pickup"
)
